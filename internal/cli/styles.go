package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/valter-silva-au/taskforge/pkg/models"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	idStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	priorityStyles = map[models.Priority]lipgloss.Style{
		models.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		models.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
)

// renderTaskLine formats one task as a listing row.
func renderTaskLine(t *models.Task) string {
	var b strings.Builder
	b.WriteString(idStyle.Render(t.ID))
	b.WriteString("  ")
	b.WriteString(t.Title)

	var tags []string
	if t.Priority != "" {
		if style, ok := priorityStyles[t.Priority]; ok {
			tags = append(tags, style.Render(string(t.Priority)))
		} else {
			tags = append(tags, string(t.Priority))
		}
	}
	if len(t.Labels) > 0 {
		tags = append(tags, dimStyle.Render("["+strings.Join(t.Labels, ", ")+"]"))
	}
	if t.Source != models.SourceLocal && t.Source != "" {
		origin := string(t.Source)
		if t.Branch != "" {
			origin = fmt.Sprintf("%s:%s", t.Source, t.Branch)
		}
		tags = append(tags, dimStyle.Render("("+origin+")"))
	}
	if len(tags) > 0 {
		b.WriteString("  ")
		b.WriteString(strings.Join(tags, " "))
	}
	return b.String()
}
