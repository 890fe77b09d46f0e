package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

func printHelp(w io.Writer) {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F5A524")).
		Bold(true).
		Render("H O M E D A S H")

	tagline := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("Chores, groceries and recipes for the whole household.")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	commands := []struct{ cmd, desc string }{
		{"homedash", "Open the dashboard (interactive TUI)"},
		{"homedash tasks", "Print your open tasks"},
		{"homedash tasks --all", "Print everyone's open tasks"},
		{"homedash shopping", "Print the shopping list by location"},
		{"homedash open", "Open the web client in a browser"},
		{"homedash version", "Show version"},
		{"homedash help", "You are here"},
	}

	fmt.Fprintf(w, "\n  %s\n\n  %s\n\n  Commands:\n", title, tagline)
	for _, c := range commands {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-22s", c.cmd)), descStyle.Render(c.desc))
	}

	envs := []struct{ name, desc string }{
		{"HOMEDASH_API_URL", "API root (default http://localhost:3000)"},
		{"HOMEDASH_ENV", "production or development"},
		{"HOMEDASH_USERNAME", "login for tasks and shopping"},
		{"HOMEDASH_PASSWORD", "password for tasks and shopping"},
		{"HOMEDASH_LOG_FILE", "where the dashboard writes logs"},
	}
	fmt.Fprintf(w, "\n  Environment:\n")
	for _, e := range envs {
		fmt.Fprintf(w, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-22s", e.name)), descStyle.Render(e.desc))
	}
	fmt.Fprintln(w)
}
