// Package tray provides system tray functionality using getlantern/systray.
package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"runtime"
	"sync"

	"github.com/getlantern/systray"
)

// the tray event loop has to own the main thread
func init() {
	runtime.LockOSThread()
}

// MenuItem represents a menu item
type MenuItem struct {
	ID        int
	Title     string
	Checkable bool
	Checked   bool
	Callback  func()
	item      *systray.MenuItem
}

// Tray manages the system tray icon and menu
type Tray struct {
	items   []*MenuItem
	onReady func()
	onExit  func()
	readyCh chan struct{}
	quitCh  chan struct{}

	stopOnce sync.Once
}

// New creates a new system tray
func New(title, tooltip string) *Tray {
	t := &Tray{
		items:   make([]*MenuItem, 0),
		readyCh: make(chan struct{}),
		quitCh:  make(chan struct{}),
	}

	t.onReady = func() {
		systray.SetTitle(title)
		systray.SetTooltip(tooltip)
		systray.SetIcon(getIcon())
		close(t.readyCh)
	}

	t.onExit = func() {
		close(t.quitCh)
	}

	return t
}

// AddMenuItem adds a menu item to the tray
func (t *Tray) AddMenuItem(title string, callback func()) int {
	id := len(t.items)
	menuItem := &MenuItem{
		ID:       id,
		Title:    title,
		Callback: callback,
	}
	t.items = append(t.items, menuItem)
	return id
}

// AddCheckItem adds a checkbox menu item. The callback receives the new
// checked state after each click.
func (t *Tray) AddCheckItem(title string, checked bool, callback func(bool)) int {
	id := len(t.items)
	menuItem := &MenuItem{
		ID:        id,
		Title:     title,
		Checkable: true,
		Checked:   checked,
	}
	menuItem.Callback = func() {
		menuItem.Checked = !menuItem.Checked
		t.SetItemChecked(id, menuItem.Checked)
		if callback != nil {
			callback(menuItem.Checked)
		}
	}
	t.items = append(t.items, menuItem)
	return id
}

// AddSeparator adds a separator to the menu
func (t *Tray) AddSeparator() {
	t.items = append(t.items, nil) // nil indicates separator
}

// SetItemChecked sets the checked state of a menu item
func (t *Tray) SetItemChecked(id int, checked bool) {
	if id >= 0 && id < len(t.items) && t.items[id] != nil {
		t.items[id].Checked = checked
		if t.items[id].item != nil {
			if checked {
				t.items[id].item.Check()
			} else {
				t.items[id].item.Uncheck()
			}
		}
	}
}

// Run starts the tray event loop (blocks). It must run on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.setupMenu, t.onExit)
}

// Done is closed once the tray has exited
func (t *Tray) Done() <-chan struct{} {
	return t.quitCh
}

// setupMenu is called when systray is ready
func (t *Tray) setupMenu() {
	t.onReady()

	for _, mi := range t.items {
		if mi == nil {
			systray.AddSeparator()
			continue
		}
		if mi.Checkable {
			mi.item = systray.AddMenuItemCheckbox(mi.Title, "", mi.Checked)
		} else {
			mi.item = systray.AddMenuItem(mi.Title, "")
		}
		if mi.Callback != nil {
			go t.watchClicks(mi)
		}
	}
}

func (t *Tray) watchClicks(mi *MenuItem) {
	for {
		select {
		case <-mi.item.ClickedCh:
			mi.Callback()
		case <-t.quitCh:
			return
		}
	}
}

// Ready is closed once the icon is shown
func (t *Tray) Ready() <-chan struct{} {
	return t.readyCh
}

// Stop stops the tray
func (t *Tray) Stop() {
	t.stopOnce.Do(systray.Quit)
}

// getIcon renders the tray icon: a key cap outline split into an upper
// (tap) and lower (hold) half.
func getIcon() []byte {
	const size = 22
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	fg := color.NRGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
	for i := 3; i < size-3; i++ {
		img.SetNRGBA(i, 3, fg)
		img.SetNRGBA(i, size-4, fg)
		img.SetNRGBA(3, i, fg)
		img.SetNRGBA(size-4, i, fg)
		if i > 5 && i < size-6 {
			img.SetNRGBA(i, size/2, fg)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
