package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/moviecenter/internal/browse"
	"github.com/vadimtrunov/moviecenter/internal/config"
	"github.com/vadimtrunov/moviecenter/internal/core"
	"github.com/vadimtrunov/moviecenter/internal/lottery"
	"github.com/vadimtrunov/moviecenter/internal/query"
	"github.com/vadimtrunov/moviecenter/internal/watchlist"
)

const carouselFrame = 120 * time.Millisecond

// newBrowseCmd returns the "browse" subcommand for the interactive catalog.
func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the catalog interactively",
		Long: "Scroll through the movie catalog, search, keep a watchlist and spin the lottery.\n" +
			"Logs are written to <data_dir>/moviecenter.log.",
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBrowse()
		},
	}
}

// runBrowse initializes services and starts the Bubble Tea browse TUI.
func runBrowse() error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := config.OpenLogFile(cfg.App.DataDir)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := config.SetupLogger(cfg.App.LogLevel, logFile)

	svc, err := initServices(cfg, logger, ephemeral)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = config.ContextWithLogger(ctx, logger)

	deps := browseDeps{
		queries:         svc.queries,
		catalog:         svc.catalog,
		watchlist:       svc.watchlist,
		lottery:         svc.lottery,
		pageSize:        cfg.Browse.PageSize,
		debounce:        cfg.Browse.Debounce,
		scrollThreshold: cfg.Browse.ScrollThreshold,
	}
	p := tea.NewProgram(newBrowseModel(ctx, deps), tea.WithAltScreen())

	// Bridge OS signal cancellation into the Bubble Tea event loop.
	go func() {
		<-ctx.Done()
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run browse: %w", err)
	}
	return nil
}

// route is one screen of the TUI.
type route int

const (
	routeListing route = iota
	routeWatchlist
	routeLottery
	routeDetails
)

// failure records which request failed, so retry knows what to re-trigger.
type failure int

const (
	failNone failure = iota
	failListing
	failSearch
	failDetails
	failLottery
)

// browseDeps are the services the TUI works with.
type browseDeps struct {
	queries         *query.MovieQueries
	catalog         core.Catalog
	watchlist       *watchlist.Store
	lottery         *lottery.Lottery
	pageSize        int
	debounce        time.Duration
	scrollThreshold int
}

// Messages delivered back to the TUI.
type (
	pageLoadedMsg struct {
		page *core.Page
		err  error
	}
	searchDebounceMsg struct{ tag int }
	searchResultMsg   struct {
		seq   uint64
		query string
		page  *core.Page
		err   error
	}
	detailsLoadedMsg struct {
		id      int
		details *core.MovieDetails
		err     error
	}
	lotteryPoolMsg struct {
		spin       int
		candidates []core.Movie
		err        error
	}
	lotteryTickMsg struct{ spin int }
	lotteryDoneMsg struct {
		spin   int
		winner core.Movie
		err    error
	}
)

// browseModel is the Bubble Tea model for the interactive catalog.
type browseModel struct {
	ctx  context.Context
	deps browseDeps

	keys     browseKeyMap
	help     help.Model
	spinner  spinner.Model
	input    textinput.Model
	viewport viewport.Model

	route route
	prev  route // where esc returns to from the detail view

	listing []core.Movie
	cursor  int
	pager   *browse.Pager

	debounce     *browse.Debouncer
	searchSeq    *query.Sequencer
	results      []core.Movie
	resultCursor int
	searching    bool
	typing       bool

	wlOrder  watchlist.SortOrder
	wlCursor int

	selection      browse.Selection
	details        *core.MovieDetails
	detailsLoading bool

	lotterySource string
	spinID        int
	spinning      bool
	carousel      []core.Movie
	carouselIdx   int
	winner        *core.Movie

	err    error
	failed failure
	status string

	width  int
	height int
}

// newBrowseModel creates a browseModel showing the first listing page.
func newBrowseModel(ctx context.Context, deps browseDeps) browseModel {
	ti := textinput.New()
	ti.Placeholder = "Search movies..."
	ti.Prompt = "/ "
	ti.CharLimit = 100

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo

	return browseModel{
		ctx:           ctx,
		deps:          deps,
		keys:          newBrowseKeyMap(),
		help:          help.New(),
		spinner:       s,
		input:         ti,
		viewport:      viewport.New(80, 16),
		pager:         browse.NewPager(deps.scrollThreshold),
		debounce:      browse.NewDebouncer(deps.debounce),
		searchSeq:     &query.Sequencer{},
		wlOrder:       watchlist.SortAdded,
		lotterySource: sourcePopular,
		width:         80,
		height:        24,
	}
}

// Init starts the spinner and requests the first listing page.
func (m browseModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchPage(m.pager.Next()))
}

// Update handles incoming messages and user input.
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg)
		return m, nil

	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		return m, cmd

	case pageLoadedMsg:
		m.handlePage(msg)
		return m, nil

	case searchDebounceMsg:
		cmd := m.handleDebounce(msg)
		return m, cmd

	case searchResultMsg:
		m.handleSearchResult(msg)
		return m, nil

	case detailsLoadedMsg:
		m.handleDetails(msg)
		return m, nil

	case lotteryPoolMsg:
		cmd := m.handleLotteryPool(msg)
		return m, cmd

	case lotteryTickMsg:
		if msg.spin != m.spinID || !m.spinning || len(m.carousel) == 0 {
			return m, nil
		}
		m.carouselIdx = (m.carouselIdx + 1) % len(m.carousel)
		return m, m.carouselTick(msg.spin)

	case lotteryDoneMsg:
		m.handleLotteryDone(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.typing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleResize adjusts the viewport and input to the terminal size.
func (m *browseModel) handleResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-chromeHeight, 3)
	m.input.Width = max(m.width-4, 10)
	m.help.Width = m.width
}

// handleKey dispatches key events to the appropriate handler.
func (m *browseModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	if m.typing {
		return m.handleTyping(msg)
	}

	m.status = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	case key.Matches(msg, m.keys.Back):
		return m.back()
	case key.Matches(msg, m.keys.Retry):
		return m.retry()
	}

	switch m.route {
	case routeWatchlist:
		return m.handleWatchlistKey(msg)
	case routeLottery:
		return m.handleLotteryKey(msg)
	case routeDetails:
		return m.handleDetailsKey(msg)
	default:
		return m.handleListingKey(msg)
	}
}

// handleTyping feeds keys to the search input and schedules debounced commits.
func (m *browseModel) handleTyping(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.typing = false
		m.input.Blur()
		if m.input.Value() == "" {
			m.clearSearch()
		}
		return nil
	case tea.KeyEnter:
		m.typing = false
		m.input.Blur()
		return nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return cmd
	}

	tag := m.debounce.Set(m.input.Value())
	return tea.Batch(cmd, tea.Tick(m.debounce.Delay(), func(time.Time) tea.Msg {
		return searchDebounceMsg{tag: tag}
	}))
}

func (m *browseModel) handleListingKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		return m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		return m.moveCursor(1)
	case key.Matches(msg, m.keys.Open):
		if mv, ok := m.currentMovie(); ok {
			return m.openDetails(mv)
		}
	case key.Matches(msg, m.keys.Toggle):
		if mv, ok := m.currentMovie(); ok {
			m.toggleWatchlist(mv)
		}
	case key.Matches(msg, m.keys.Search):
		m.typing = true
		return m.input.Focus()
	case key.Matches(msg, m.keys.Watchlist):
		m.route = routeWatchlist
		m.clampWatchlistCursor()
	case key.Matches(msg, m.keys.Lottery):
		m.route = routeLottery
	}
	return nil
}

func (m *browseModel) handleWatchlistKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		return m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		return m.moveCursor(1)
	case key.Matches(msg, m.keys.Open):
		if mv, ok := m.currentMovie(); ok {
			return m.openDetails(mv)
		}
	case key.Matches(msg, m.keys.Toggle):
		if mv, ok := m.currentMovie(); ok {
			m.toggleWatchlist(mv)
		}
	case key.Matches(msg, m.keys.Sort):
		m.wlOrder = m.wlOrder.Next()
		m.wlCursor = 0
	case key.Matches(msg, m.keys.Lottery):
		m.route = routeLottery
	}
	return nil
}

func (m *browseModel) handleLotteryKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Spin):
		return m.startSpin()
	case key.Matches(msg, m.keys.Source):
		if m.spinning {
			return nil
		}
		if m.lotterySource == sourcePopular {
			m.lotterySource = sourceWatchlist
		} else {
			m.lotterySource = sourcePopular
		}
		m.winner = nil
		m.carousel = nil
	case key.Matches(msg, m.keys.Open):
		if m.winner != nil {
			return m.openDetails(*m.winner)
		}
	case key.Matches(msg, m.keys.Toggle):
		if m.winner != nil {
			m.toggleWatchlist(*m.winner)
		}
	case key.Matches(msg, m.keys.Watchlist):
		m.route = routeWatchlist
		m.clampWatchlistCursor()
	}
	return nil
}

func (m *browseModel) handleDetailsKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Toggle):
		if m.details != nil {
			m.toggleWatchlist(m.details.Movie)
		}
		return nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return cmd
}

// back leaves the current route, or clears an active search on the listing.
func (m *browseModel) back() tea.Cmd {
	switch m.route {
	case routeDetails:
		m.closeDetails()
	case routeWatchlist, routeLottery:
		m.route = routeListing
	default:
		if m.showingResults() {
			m.clearSearch()
		}
	}
	return nil
}

// retry re-triggers whatever request failed last.
func (m *browseModel) retry() tea.Cmd {
	failed := m.failed
	if failed == failNone {
		return nil
	}
	m.err = nil
	m.failed = failNone

	switch failed {
	case failListing:
		if m.pager.Loading() {
			return nil
		}
		return m.fetchPage(m.pager.Next())
	case failSearch:
		return m.search(m.debounce.Committed())
	case failDetails:
		if id, ok := m.selection.Current(); ok {
			m.detailsLoading = true
			return m.loadDetails(id)
		}
	case failLottery:
		return m.startSpin()
	}
	return nil
}

func (m *browseModel) setError(kind failure, err error) {
	m.err = err
	m.failed = kind
	config.LoggerFromContext(m.ctx).Warn("browse request failed", slog.Int("kind", int(kind)), slog.String("error", err.Error()))
}

func (m *browseModel) clearError(kind failure) {
	if m.failed == kind {
		m.err = nil
		m.failed = failNone
	}
}

// Listing and infinite scroll.

func (m browseModel) fetchPage(page int) tea.Cmd {
	params := discoverParams(m.deps.pageSize, page)
	ctx, discover := m.ctx, m.deps.queries.Discover
	return func() tea.Msg {
		p, err := discover.Query(ctx, params)
		return pageLoadedMsg{page: p, err: err}
	}
}

func (m *browseModel) handlePage(msg pageLoadedMsg) {
	if msg.err != nil {
		m.pager.Failed()
		m.setError(failListing, msg.err)
		return
	}
	m.clearError(failListing)
	m.listing = msg.page.Movies
	m.pager.Loaded(msg.page.Page, msg.page.TotalPages)
}

// maybeLoadMore requests the next page when the cursor nears the end of the listing.
func (m *browseModel) maybeLoadMore() tea.Cmd {
	if m.failed == failListing {
		return nil
	}
	remaining := len(m.listing) - 1 - m.cursor
	if !m.pager.ShouldLoadMore(remaining) {
		return nil
	}
	return m.fetchPage(m.pager.Next())
}

func (m *browseModel) moveCursor(delta int) tea.Cmd {
	switch m.route {
	case routeWatchlist:
		m.wlCursor = clampIndex(m.wlCursor+delta, m.deps.watchlist.Len())
	case routeListing:
		if m.showingResults() {
			m.resultCursor = clampIndex(m.resultCursor+delta, len(m.results))
			return nil
		}
		m.cursor = clampIndex(m.cursor+delta, len(m.listing))
		return m.maybeLoadMore()
	}
	return nil
}

// currentMovie returns the movie under the cursor of the current route.
func (m browseModel) currentMovie() (core.Movie, bool) {
	var movies []core.Movie
	var idx int
	switch m.route {
	case routeWatchlist:
		movies, idx = m.watchlistMovies(), m.wlCursor
	case routeListing:
		if m.showingResults() {
			movies, idx = m.results, m.resultCursor
		} else {
			movies, idx = m.listing, m.cursor
		}
	}
	if idx < 0 || idx >= len(movies) {
		return core.Movie{}, false
	}
	return movies[idx], true
}

// Search.

func (m browseModel) showingResults() bool {
	return strings.TrimSpace(m.debounce.Committed()) != ""
}

func (m *browseModel) handleDebounce(msg searchDebounceMsg) tea.Cmd {
	q, changed := m.debounce.Commit(msg.tag)
	if !changed {
		return nil
	}
	m.resultCursor = 0
	m.clearError(failSearch)
	return m.search(q)
}

// search issues a request for q. Only the latest request's result is applied.
func (m *browseModel) search(q string) tea.Cmd {
	seq := m.searchSeq.Next()
	if strings.TrimSpace(q) == "" {
		m.results = nil
		m.searching = false
		return nil
	}
	m.searching = true
	ctx, endpoint := m.ctx, m.deps.queries.Search
	return func() tea.Msg {
		page, err := endpoint.Query(ctx, q)
		return searchResultMsg{seq: seq, query: q, page: page, err: err}
	}
}

func (m *browseModel) handleSearchResult(msg searchResultMsg) {
	if msg.seq != m.searchSeq.Latest() || !m.searchSeq.Apply(msg.seq) {
		return
	}
	m.searching = false
	switch {
	case errors.Is(msg.err, query.ErrSkipped):
		m.results = nil
	case msg.err != nil:
		m.setError(failSearch, msg.err)
	default:
		m.results = msg.page.Movies
		m.resultCursor = clampIndex(m.resultCursor, len(m.results))
	}
}

func (m *browseModel) clearSearch() {
	m.debounce.Reset()
	m.searchSeq.Next()
	m.input.SetValue("")
	m.results = nil
	m.searching = false
	m.resultCursor = 0
	m.clearError(failSearch)
}

// Details.

func (m *browseModel) openDetails(mv core.Movie) tea.Cmd {
	if m.route != routeDetails {
		m.prev = m.route
	}
	m.route = routeDetails
	m.selection.Open(mv.ID)
	m.details = nil
	m.detailsLoading = true
	m.clearError(failDetails)
	return m.loadDetails(mv.ID)
}

func (m browseModel) loadDetails(id int) tea.Cmd {
	ctx, endpoint := m.ctx, m.deps.queries.Movie
	return func() tea.Msg {
		d, err := endpoint.Query(ctx, id)
		return detailsLoadedMsg{id: id, details: d, err: err}
	}
}

func (m *browseModel) handleDetails(msg detailsLoadedMsg) {
	if !m.selection.IsOpen(msg.id) {
		return
	}
	m.detailsLoading = false
	if msg.err != nil {
		m.setError(failDetails, msg.err)
		return
	}
	m.details = msg.details
	m.refreshDetails()
	m.viewport.GotoTop()
}

func (m *browseModel) refreshDetails() {
	if m.details == nil {
		return
	}
	m.viewport.SetContent(formatDetails(m.details, m.deps.watchlist.Contains(m.details.ID)))
}

func (m *browseModel) closeDetails() {
	m.selection.Close()
	m.details = nil
	m.detailsLoading = false
	m.clearError(failDetails)
	m.route = m.prev
}

// Watchlist.

func (m browseModel) watchlistMovies() []core.Movie {
	return m.deps.watchlist.Sorted(m.wlOrder)
}

func (m *browseModel) toggleWatchlist(mv core.Movie) {
	in, err := m.deps.watchlist.Toggle(mv.Basic())
	if err != nil {
		m.status = ""
		m.err = fmt.Errorf("update watchlist: %w", err)
		m.failed = failNone
		return
	}
	if in {
		m.status = "Added " + mv.Title + " to your watchlist"
	} else {
		m.status = "Removed " + mv.Title + " from your watchlist"
	}
	m.clampWatchlistCursor()
	m.refreshDetails()
}

func (m *browseModel) clampWatchlistCursor() {
	m.wlCursor = clampIndex(m.wlCursor, m.deps.watchlist.Len())
}

// Lottery.

// startSpin gathers the candidate pool; the spin itself starts once it arrives.
func (m *browseModel) startSpin() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	m.spinID++
	m.winner = nil
	m.carousel = nil
	m.clearError(failLottery)

	spin, source := m.spinID, m.lotterySource
	ctx, catalog, wl := m.ctx, m.deps.catalog, m.deps.watchlist
	return func() tea.Msg {
		if source == sourceWatchlist {
			return lotteryPoolMsg{spin: spin, candidates: wl.Movies()}
		}
		page, err := catalog.Popular(ctx)
		if err != nil {
			return lotteryPoolMsg{spin: spin, err: err}
		}
		return lotteryPoolMsg{spin: spin, candidates: page.Movies}
	}
}

func (m *browseModel) handleLotteryPool(msg lotteryPoolMsg) tea.Cmd {
	if msg.spin != m.spinID {
		return nil
	}
	if msg.err != nil {
		m.spinning = false
		m.setError(failLottery, msg.err)
		return nil
	}
	if len(msg.candidates) == 0 {
		m.spinning = false
		if m.lotterySource == sourceWatchlist {
			m.status = "Your watchlist is empty"
		} else {
			m.status = "No popular movies to pick from right now"
		}
		return nil
	}

	// The carousel is for show: Spin draws the winner independently.
	m.carousel = m.deps.lottery.Carousel(msg.candidates)
	m.carouselIdx = 0

	ctx, l, spin, candidates := m.ctx, m.deps.lottery, msg.spin, msg.candidates
	return tea.Batch(m.carouselTick(spin), func() tea.Msg {
		res, err := l.Spin(ctx, candidates)
		return lotteryDoneMsg{spin: spin, winner: res.Winner, err: err}
	})
}

func (m browseModel) carouselTick(spin int) tea.Cmd {
	return tea.Tick(carouselFrame, func(time.Time) tea.Msg {
		return lotteryTickMsg{spin: spin}
	})
}

func (m *browseModel) handleLotteryDone(msg lotteryDoneMsg) {
	if msg.spin != m.spinID {
		return
	}
	m.spinning = false
	if msg.err != nil {
		m.setError(failLottery, msg.err)
		return
	}
	winner := msg.winner
	m.winner = &winner
}

// clampIndex keeps i within [0, n).
func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
