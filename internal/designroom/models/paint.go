package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ============================================================
// Paint values
// ============================================================

// ErrInvalidPaint: цвет или шрифт, который нельзя безопасно вывести в style.
var ErrInvalidPaint = errors.New("invalid paint value")

var (
	hexColor   = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	namedColor = regexp.MustCompile(`^[a-zA-Z]{1,32}$`)
	funcColor  = regexp.MustCompile(`^(?:rgb|rgba|hsl|hsla)\([0-9.,%\s]{1,64}\)$`)
	fontName   = regexp.MustCompile(`^[\p{L}\p{N} ,'._-]{1,128}$`)
)

// ValidColor принимает пустую строку, none, hex, имя цвета и
// функции rgb/rgba/hsl/hsla с числовыми аргументами.
func ValidColor(s string) bool {
	if s == "" {
		return true
	}
	return hexColor.MatchString(s) || namedColor.MatchString(s) || funcColor.MatchString(s)
}

// ValidFontFamily: список семейств через запятую, без кавычек-двойных,
// точек с запятой и угловых скобок.
func ValidFontFamily(s string) bool {
	return s == "" || fontName.MatchString(strings.TrimSpace(s))
}

func checkColor(field, v string) error {
	if !ValidColor(v) {
		return fmt.Errorf("%w: %s %q", ErrInvalidPaint, field, v)
	}
	return nil
}

func checkColorPtr(field string, v *string) error {
	if v == nil {
		return nil
	}
	return checkColor(field, *v)
}

func checkFont(field, v string) error {
	if !ValidFontFamily(v) {
		return fmt.Errorf("%w: %s %q", ErrInvalidPaint, field, v)
	}
	return nil
}

// Validate проверяет стиль инструмента.
func (s Style) Validate() error {
	return errors.Join(
		checkColor("fill", s.Fill),
		checkColor("stroke", s.Stroke),
		checkColor("textFill", s.TextFill),
		checkFont("fontFamily", s.FontFamily),
	)
}

// Sanitized заменяет недопустимые значения на значения из fallback.
func (s Style) Sanitized(fallback Style) Style {
	if !ValidColor(s.Fill) {
		s.Fill = fallback.Fill
	}
	if !ValidColor(s.Stroke) {
		s.Stroke = fallback.Stroke
	}
	if !ValidColor(s.TextFill) {
		s.TextFill = fallback.TextFill
	}
	if !ValidFontFamily(s.FontFamily) {
		s.FontFamily = fallback.FontFamily
	}
	return s
}

// Validate проверяет цвета и шрифт в патче.
func (p Patch) Validate() error {
	var errs []error
	if p.Shape != nil {
		errs = append(errs,
			checkColorPtr("shape.fill", p.Shape.Fill),
			checkColorPtr("shape.stroke", p.Shape.Stroke))
	}
	if p.Text != nil {
		errs = append(errs, checkColorPtr("text.fill", p.Text.Fill))
		if p.Text.FontFamily != nil {
			errs = append(errs, checkFont("text.fontFamily", *p.Text.FontFamily))
		}
	}
	if p.Container != nil {
		errs = append(errs,
			checkColorPtr("container.background", p.Container.Background),
			checkColorPtr("container.stroke", p.Container.Stroke))
	}
	return errors.Join(errs...)
}
