package resolver

import "strconv"

// Valores numéricos dos headers X-RateLimit-* e Retry-After.

func formatInt(v int) string { return strconv.Itoa(v) }

func formatFloat(v float64) string {
	// sem notação científica para valores comuns (ex: 0.02)
	return strconv.FormatFloat(v, 'f', -1, 64)
}
