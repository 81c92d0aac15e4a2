package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/AlexZinkM/card-wallet/internal/model"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorOK      = lipgloss.Color("#8BC34A")
	colorWarn    = lipgloss.Color("#FFC107")
	colorBad     = lipgloss.Color("#e53935")
	colorInfo    = lipgloss.Color("#2196F3")
	colorMuted   = lipgloss.Color("#7a8699")
	badgeStyle   = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("#101F38"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	labelStyle   = lipgloss.NewStyle().Width(18).Foreground(colorMuted)
	unreadStyle  = lipgloss.NewStyle().Foreground(colorInfo).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorBad).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(colorOK).Bold(true)
)

// statusBadge renders an inbox status code as a coloured badge.
func statusBadge(info *model.StatusInfo) string {
	if info == nil {
		return badgeStyle.Background(colorMuted).Render("unknown")
	}
	var bg lipgloss.Color
	switch info.Code {
	case model.StatusShared, model.StatusAdded:
		bg = colorOK
	case model.StatusExpired, model.StatusNotFound:
		bg = colorBad
	case model.StatusScanned:
		bg = colorWarn
	default:
		bg = colorInfo
	}
	return badgeStyle.Background(bg).Render(info.Label)
}

func validityBadge(v model.CardValidity) string {
	if v == model.CardExpired {
		return badgeStyle.Background(colorBad).Render("expired")
	}
	return badgeStyle.Background(colorOK).Render("valid")
}

func printCard(w io.Writer, v model.CardView) {
	fmt.Fprintf(w, "%s %s %s\n", titleStyle.Render(v.Title), mutedStyle.Render(v.ID), validityBadge(v.Validity))
	if v.Issuer != "" {
		fmt.Fprintf(w, "  %s%s\n", labelStyle.Render("Issuer"), v.Issuer)
	}
	for _, f := range v.Fields {
		fmt.Fprintf(w, "  %s%s\n", labelStyle.Render(f.Label), f.Value)
	}
}

func printEntry(w io.Writer, e model.InboxEntry) {
	marker := " "
	if e.Unread {
		marker = unreadStyle.Render("•")
	}
	title := e.Title
	if title == "" {
		title = e.ID
	}
	fmt.Fprintf(w, "%s %s %s %s\n", marker, titleStyle.Render(title), statusBadge(e.StatusInfo), mutedStyle.Render(e.ID))
	if e.StatusInfo != nil && e.StatusInfo.Description != "" {
		fmt.Fprintf(w, "    %s\n", mutedStyle.Render(e.StatusInfo.Description))
	}
}

func printShare(w io.Writer, v model.ShareView) {
	fmt.Fprintln(w, titleStyle.Render(v.Title))
	if v.Outcome == model.OutcomeNotFound {
		fmt.Fprintln(w, errorStyle.Render("No matching card in this wallet"))
		return
	}
	if v.Expired {
		fmt.Fprintln(w, errorStyle.Render("Session expired, ask for a new QR code"))
	}
	if len(v.Candidates) > 1 {
		for i, c := range v.Candidates {
			marker := " "
			if i == v.Selected {
				marker = ">"
			}
			fmt.Fprintf(w, "%s [%d] %s %s\n", marker, i, c.Type, mutedStyle.Render(c.ID))
		}
	}
	if v.Fallback {
		fmt.Fprintln(w, mutedStyle.Render("Request did not name a card type; using your only card"))
	}
	for _, f := range v.Fields {
		box := "[ ]"
		if f.Selected {
			box = "[x]"
		}
		req := ""
		if f.Required {
			req = mutedStyle.Render(" required")
		}
		fmt.Fprintf(w, "  %s %s%s%s\n", box, labelStyle.Render(f.Label), f.Value, req)
	}
	if len(v.MissingRequired) > 0 {
		fmt.Fprintln(w, errorStyle.Render("Missing: "+strings.Join(v.MissingRequired, ", ")))
	}
}
