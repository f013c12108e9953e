package main

import "github.com/charmbracelet/bubbles/key"

// browseKeyMap holds the key bindings of the browse TUI.
type browseKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Open      key.Binding
	Toggle    key.Binding
	Search    key.Binding
	Watchlist key.Binding
	Lottery   key.Binding
	Sort      key.Binding
	Spin      key.Binding
	Source    key.Binding
	Back      key.Binding
	Retry     key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func newBrowseKeyMap() browseKeyMap {
	return browseKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "watchlist +/-"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Watchlist: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "watchlist"),
		),
		Lottery: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "lottery"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
		Spin: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "spin"),
		),
		Source: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "switch pool"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// routeHelp shows the bindings that apply to one route.
type routeHelp struct {
	keys  browseKeyMap
	route route
}

func (h routeHelp) ShortHelp() []key.Binding {
	k := h.keys
	switch h.route {
	case routeWatchlist:
		return []key.Binding{k.Up, k.Down, k.Open, k.Toggle, k.Sort, k.Back, k.Quit}
	case routeLottery:
		return []key.Binding{k.Spin, k.Source, k.Open, k.Toggle, k.Back, k.Quit}
	case routeDetails:
		return []key.Binding{k.Up, k.Down, k.Toggle, k.Back, k.Quit}
	default:
		return []key.Binding{k.Up, k.Down, k.Open, k.Toggle, k.Search, k.Watchlist, k.Lottery, k.Quit}
	}
}

func (h routeHelp) FullHelp() [][]key.Binding {
	return [][]key.Binding{h.ShortHelp(), {h.keys.Back, h.keys.Retry, h.keys.Help}}
}
