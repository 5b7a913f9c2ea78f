package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	accent           = lipgloss.Color("#22d3ee")
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	tableHeaderStyle = lipgloss.NewStyle().Foreground(accent).Bold(true).Padding(0, 1)
	tableRowStyle    = lipgloss.NewStyle().Padding(0, 1)
	tableRowAltStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#D1D5DB"))
)

type roomRow struct {
	ID           string `json:"id"`
	Participants int    `json:"participants"`
	Capacity     int    `json:"capacity"`
}

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List live rooms on the server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		rooms, err := fetchRooms(ctx, http.DefaultClient, flagServer)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderRooms(rooms))
		return nil
	},
}

func fetchRooms(ctx context.Context, httpClient *http.Client, base string) ([]roomRow, error) {
	endpoint, err := url.JoinPath(base, "/api/rooms")
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list rooms: unexpected status %s", resp.Status)
	}
	var rooms []roomRow
	if err := json.NewDecoder(resp.Body).Decode(&rooms); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return rooms, nil
}

func renderRooms(rooms []roomRow) string {
	if len(rooms) == 0 {
		return mutedStyle.Render("No live rooms")
	}

	rows := make([][]string, 0, len(rooms))
	for _, r := range rooms {
		rows = append(rows, []string{
			r.ID,
			strconv.Itoa(r.Participants),
			strconv.Itoa(r.Capacity - r.Participants),
		})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(accent)).
		Headers("Room", "Participants", "Free").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case row%2 == 0:
				return tableRowStyle
			default:
				return tableRowAltStyle
			}
		})

	return tbl.Render()
}
