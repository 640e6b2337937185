package notify

import (
	"fmt"
	"time"
)

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func pctStr(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func optPct(v *float64) string {
	if v == nil {
		return "-"
	}
	return pctStr(*v)
}

func optFloat(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func holdStr(sec *float64) string {
	if sec == nil {
		return "-"
	}
	return formatDuration(time.Duration(*sec * float64(time.Second)))
}

// formatDuration formatea una duración de forma legible (ej: "2h15m", "45m", "30s").
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh%dm", h, m)
}
