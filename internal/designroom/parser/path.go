package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"design-room/internal/designroom/models"
)

// ============================================================
// Path Parser
// ============================================================

// ParsePath раскладывает атрибут d в список опорных точек.
// Кривые (C, S, Q, T) и дуги (A) сводятся к своим конечным точкам.
// Повторные координаты после M/m трактуются как L/l.
func ParsePath(d string) ([]models.Point, error) {
	tokens := tokenizePath(d)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty path")
	}

	var (
		points []models.Point
		cur    models.Point
		start  models.Point
		cmd    byte
	)
	i := 0
	next := func() (float64, error) {
		if i >= len(tokens) || isCommand(tokens[i]) {
			return 0, fmt.Errorf("command %c: missing argument", cmd)
		}
		v, err := strconv.ParseFloat(tokens[i], 64)
		if err != nil {
			return 0, fmt.Errorf("command %c: %w", cmd, err)
		}
		i++
		return v, nil
	}
	// skip пропускает n аргументов (контрольные точки кривых).
	skip := func(n int) error {
		for k := 0; k < n; k++ {
			if _, err := next(); err != nil {
				return err
			}
		}
		return nil
	}

	for i < len(tokens) {
		if isCommand(tokens[i]) {
			cmd = tokens[i][0]
			i++
		} else if cmd == 0 {
			return nil, fmt.Errorf("path must start with a command, got %q", tokens[i])
		}

		relative := unicode.IsLower(rune(cmd))
		var err error
		switch unicode.ToUpper(rune(cmd)) {
		case 'M', 'L', 'T':
			var x, y float64
			if x, err = next(); err != nil {
				return nil, err
			}
			if y, err = next(); err != nil {
				return nil, err
			}
			cur = advance(cur, x, y, relative)
			if unicode.ToUpper(rune(cmd)) == 'M' {
				start = cur
				// последующие пары: неявный lineto
				if relative {
					cmd = 'l'
				} else {
					cmd = 'L'
				}
			}
		case 'H':
			var x float64
			if x, err = next(); err != nil {
				return nil, err
			}
			if relative {
				cur.X += x
			} else {
				cur.X = x
			}
		case 'V':
			var y float64
			if y, err = next(); err != nil {
				return nil, err
			}
			if relative {
				cur.Y += y
			} else {
				cur.Y = y
			}
		case 'C', 'S', 'Q', 'A':
			var x, y float64
			if err = skip(curveControls(cmd)); err != nil {
				return nil, err
			}
			if x, err = next(); err != nil {
				return nil, err
			}
			if y, err = next(); err != nil {
				return nil, err
			}
			cur = advance(cur, x, y, relative)
		case 'Z':
			if i < len(tokens) && !isCommand(tokens[i]) {
				return nil, fmt.Errorf("command %c takes no arguments", cmd)
			}
			cur = start
			points = append(points, cur)
			continue
		default:
			return nil, fmt.Errorf("unsupported path command %c", cmd)
		}
		points = append(points, cur)
	}

	return points, nil
}

func advance(cur models.Point, x, y float64, relative bool) models.Point {
	if relative {
		return models.Point{X: cur.X + x, Y: cur.Y + y}
	}
	return models.Point{X: x, Y: y}
}

// curveControls: сколько чисел идёт перед конечной точкой команды.
func curveControls(cmd byte) int {
	switch unicode.ToUpper(rune(cmd)) {
	case 'C':
		return 4
	case 'S', 'Q':
		return 2
	case 'A':
		return 5
	}
	return 0
}

func isCommand(tok string) bool {
	return len(tok) == 1 && strings.ContainsRune("MmLlHhVvCcSsQqTtAaZz", rune(tok[0]))
}

// tokenizePath режет d на команды и числа. Числа могут идти без
// разделителей: "10-5" и "1.5.5" дают по два числа.
func tokenizePath(d string) []string {
	var tokens []string
	var num strings.Builder
	dot := false

	flush := func() {
		if num.Len() > 0 {
			tokens = append(tokens, num.String())
			num.Reset()
		}
		dot = false
	}

	for idx, r := range d {
		switch {
		case strings.ContainsRune("MmLlHhVvCcSsQqTtAaZz", r):
			flush()
			tokens = append(tokens, string(r))
		case r == '-' || r == '+':
			// знак экспоненты остаётся частью числа
			if idx > 0 && (d[idx-1] == 'e' || d[idx-1] == 'E') {
				num.WriteRune(r)
				continue
			}
			flush()
			num.WriteRune(r)
		case r == '.':
			if dot {
				flush()
			}
			dot = true
			num.WriteRune(r)
		case unicode.IsDigit(r) || r == 'e' || r == 'E':
			num.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}
