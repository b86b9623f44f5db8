package form

// EventSource delivers platform signals. Each subscription returns the
// function that releases it.
type EventSource interface {
	SubscribeKeyboard(fn func(visible bool)) (unsubscribe func())
	SubscribeScreenFocus(fn func(focused bool)) (unsubscribe func())
}

// FocusHandle is registered by a mounted widget so the controller can move
// focus to it by field id.
type FocusHandle interface {
	Focus()
}

// FocusHandleFunc adapts a function to FocusHandle.
type FocusHandleFunc func()

// Focus calls fn.
func (fn FocusHandleFunc) Focus() { fn() }

// RegisterFocus records handle for id and returns the release func the
// widget calls on unmount. Releasing twice, or after another handle took the
// id, is a no-op.
func (c *Controller) RegisterFocus(id string, handle FocusHandle) (release func()) {
	if handle == nil {
		return func() {}
	}
	entry := &focusEntry{handle: handle}

	c.mu.Lock()
	c.focus[id] = entry
	pending := !c.autoFocused && c.autoFocusPending == id
	c.mu.Unlock()

	if pending {
		c.autoFocus(id)
	}

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.focus[id] == entry {
			delete(c.focus, id)
		}
	}
}

type focusEntry struct {
	handle FocusHandle
}

// Focus moves focus to the field registered under id. It reports false when
// no handle is registered or the controller is unmounted.
func (c *Controller) Focus(id string) bool {
	c.mu.Lock()
	entry, ok := c.focus[id]
	if !ok || c.state == StateUnmounted {
		c.mu.Unlock()
		return false
	}
	c.state = StateFocusing
	c.focused = id
	onFocus := c.onFocus
	c.mu.Unlock()

	entry.handle.Focus()
	if onFocus != nil {
		onFocus(id)
	}
	return true
}

// Focused returns the id of the field holding focus, or "".
func (c *Controller) Focused() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.focused
}

// KeyboardVisible reports the last keyboard signal.
func (c *Controller) KeyboardVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keyboard
}

// Blur releases focus from id and returns to idle.
func (c *Controller) Blur(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.focused != id {
		return
	}
	c.focused = ""
	if c.state == StateFocusing {
		c.state = StateIdle
	}
}

func (c *Controller) keyboardChanged(visible bool) {
	c.mu.Lock()
	c.keyboard = visible
	c.mu.Unlock()
}

// screenFocused focuses the first visible autoFocus field, once per
// controller. A target whose widget has not registered yet stays pending
// until RegisterFocus is called for it.
func (c *Controller) screenFocused(focused bool) {
	if !focused {
		return
	}
	c.mu.Lock()
	if c.autoFocused || c.state == StateUnmounted {
		c.mu.Unlock()
		return
	}
	fields := c.fields
	resolver := c.resolverLocked()
	c.mu.Unlock()

	target := ""
	for _, field := range flattenVisible(fields, resolver) {
		if field.AutoFocus {
			target = field.ID
			break
		}
	}
	if target == "" {
		return
	}
	c.autoFocus(target)
}

// autoFocus focuses target and marks autofocus as done, or leaves target
// pending when no handle is registered for it.
func (c *Controller) autoFocus(target string) {
	if c.Focus(target) {
		c.mu.Lock()
		c.autoFocused = true
		c.autoFocusPending = ""
		c.mu.Unlock()
		return
	}
	c.mu.Lock()
	if !c.autoFocused {
		c.autoFocusPending = target
	}
	c.mu.Unlock()
	c.logger.Debug("autofocus target has no focus handle yet", "field", target)
}
