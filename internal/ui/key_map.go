package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	enter     key.Binding
	back      key.Binding
	yes       key.Binding
	no        key.Binding
	add       key.Binding
	edit      key.Binding
	del       key.Binding
	watched   key.Binding
	sel       key.Binding
	selAll    key.Binding
	bulkWatch key.Binding
	bulkDel   key.Binding
	sort      key.Binding
	order     key.Binding
	filter    key.Binding
	search    key.Binding
	find      key.Binding
	lookup    key.Binding
	scan      key.Binding
	random    key.Binding
	reload    key.Binding
	logout    key.Binding
	next      key.Binding
	prev      key.Binding
	save      key.Binding
	start     key.Binding
	stop      key.Binding
	torch     key.Binding
	another   key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		yes:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:        key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		del:       key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		watched:   key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "watched")),
		sel:       key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		selAll:    key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "select all")),
		bulkWatch: key.NewBinding(key.WithKeys("W"), key.WithHelp("W", "mark selected")),
		bulkDel:   key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete selected")),
		sort:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		order:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "order")),
		filter:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		find:      key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "find")),
		lookup:    key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "lookup")),
		scan:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "scan")),
		random:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "random")),
		reload:    key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
		logout:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
		next:      key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("tab", "next")),
		prev:      key.NewBinding(key.WithKeys("shift+tab", "up"), key.WithHelp("shift+tab", "prev")),
		save:      key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		start:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "start camera")),
		stop:      key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "stop camera")),
		torch:     key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "torch")),
		another:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pick another")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.enter, k.add, k.scan, k.random, k.search, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.add, k.edit, k.del, k.watched},
		{k.sel, k.selAll, k.bulkWatch, k.bulkDel},
		{k.sort, k.order, k.filter, k.search, k.find},
		{k.lookup, k.scan, k.random, k.reload},
		{k.logout, k.quit},
	}
}
