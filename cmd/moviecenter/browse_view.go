package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/moviecenter/internal/core"
)

// chromeHeight is the number of rows taken by everything except the body.
const chromeHeight = 7

var (
	styleTab       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("8"))
	styleActiveTab = lipgloss.NewStyle().Padding(0, 1).Bold(true).
			Foreground(lipgloss.Color("15")).Background(lipgloss.Color("5"))
	styleBanner = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// View renders the TUI.
func (m browseModel) View() string {
	var sb strings.Builder

	sb.WriteString(m.renderTabs())
	sb.WriteString("\n\n")

	if m.route == routeListing {
		sb.WriteString(m.renderSearchBar())
	}
	sb.WriteString("\n")
	sb.WriteString(m.renderStatus())
	sb.WriteString("\n")

	switch m.route {
	case routeWatchlist:
		sb.WriteString(m.renderWatchlist())
	case routeLottery:
		sb.WriteString(m.renderLottery())
	case routeDetails:
		sb.WriteString(m.renderDetails())
	default:
		if m.showingResults() || m.searching {
			sb.WriteString(m.renderResults())
		} else {
			sb.WriteString(m.renderListing())
		}
	}

	sb.WriteString("\n\n")
	sb.WriteString(m.help.View(routeHelp{keys: m.keys, route: m.route}))
	return sb.String()
}

func (m browseModel) renderTabs() string {
	tabs := []struct {
		name string
		r    route
	}{
		{"Discover", routeListing},
		{fmt.Sprintf("Watchlist (%d)", m.deps.watchlist.Len()), routeWatchlist},
		{"Lottery", routeLottery},
	}
	active := m.route
	if active == routeDetails {
		active = m.prev
	}
	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		if t.r == active {
			parts = append(parts, styleActiveTab.Render(t.name))
		} else {
			parts = append(parts, styleTab.Render(t.name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m browseModel) renderSearchBar() string {
	if m.typing || m.input.Value() != "" {
		return m.input.View()
	}
	return styleDim.Render("Press / to search")
}

func (m browseModel) renderStatus() string {
	switch {
	case m.err != nil && m.failed != failNone:
		return styleBanner.Render("Error: "+m.err.Error()) + styleDim.Render("  (r to retry)")
	case m.err != nil:
		return styleBanner.Render("Error: " + m.err.Error())
	case m.status != "":
		return styleSuccess.Render(m.status)
	}
	return ""
}

// bodyHeight is the number of rows available for list bodies.
func (m browseModel) bodyHeight() int {
	return max(m.height-chromeHeight, 3)
}

func (m browseModel) renderListing() string {
	if len(m.listing) == 0 {
		if m.pager.Loading() {
			return m.spinner.View() + styleDim.Render(" Loading movies...")
		}
		if m.failed == failListing {
			return ""
		}
		return styleDim.Render("No movies found.")
	}

	body := m.renderRows(m.listing, m.cursor, m.bodyHeight()-1)
	switch {
	case m.pager.Loading():
		body += "\n" + m.spinner.View() + styleDim.Render(" Loading more...")
	case !m.pager.HasMore():
		body += "\n" + styleDim.Render("End of list")
	default:
		body += "\n" + styleDim.Render(fmt.Sprintf("Page %d of %d", m.pager.Page(), m.pager.TotalPages()))
	}
	return body
}

func (m browseModel) renderResults() string {
	if m.searching && len(m.results) == 0 {
		return m.spinner.View() + styleDim.Render(" Searching...")
	}
	if len(m.results) == 0 {
		if m.failed == failSearch {
			return ""
		}
		return styleDim.Render("No movies found matching your search")
	}
	return m.renderRows(m.results, m.resultCursor, m.bodyHeight())
}

func (m browseModel) renderWatchlist() string {
	movies := m.watchlistMovies()
	header := styleDim.Render("Sorted by " + string(m.wlOrder))
	if len(movies) == 0 {
		return header + "\n" + styleDim.Render("Your watchlist is empty")
	}
	return header + "\n" + m.renderRows(movies, m.wlCursor, m.bodyHeight()-1)
}

func (m browseModel) renderLottery() string {
	var sb strings.Builder
	sb.WriteString(styleDim.Render("Pool: "))
	sb.WriteString(styleInfo.Render(m.lotterySource))
	sb.WriteString("\n\n")

	switch {
	case m.spinning && len(m.carousel) == 0:
		sb.WriteString(m.spinner.View() + styleDim.Render(" Gathering candidates..."))
	case m.spinning:
		for i, mv := range m.carousel {
			if i == m.carouselIdx {
				sb.WriteString(styleSelected.Render("▶ "+mv.Title) + "\n")
			} else {
				sb.WriteString(styleDim.Render("  "+mv.Title) + "\n")
			}
		}
	case m.winner != nil:
		sb.WriteString(styleSuccess.Render("Tonight you're watching") + "\n\n")
		sb.WriteString("  " + formatMovieLine(*m.winner))
		if m.deps.watchlist.Contains(m.winner.ID) {
			sb.WriteString("  " + styleSuccess.Render("✓"))
		}
	default:
		sb.WriteString(styleDim.Render("Press space to spin the wheel"))
	}
	return sb.String()
}

func (m browseModel) renderDetails() string {
	if m.detailsLoading {
		return m.spinner.View() + styleDim.Render(" Loading movie...")
	}
	if m.details == nil {
		return ""
	}
	return m.viewport.View()
}

// renderRows renders a window of movies that keeps the cursor visible.
func (m browseModel) renderRows(movies []core.Movie, cursor, height int) string {
	height = max(height, 1)
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	end := min(start+height, len(movies))

	var sb strings.Builder
	for i := start; i < end; i++ {
		mv := movies[i]
		mark := "  "
		if m.deps.watchlist.Contains(mv.ID) {
			mark = styleSuccess.Render("✓ ")
		}
		line := mark + formatMovieLine(mv)
		if i == cursor {
			line = styleSelected.Render("▶ ") + line
		} else {
			line = "  " + line
		}
		sb.WriteString(line)
		if i < end-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
