package pipeline

import (
	"strconv"
	"strings"

	"lyyti/internal"
)

const (
	labelBoys  = "Pojat"
	labelGirls = "Tytöt"
)

func GenderOf(label string) internal.Gender {
	if strings.Contains(label, labelBoys) {
		return internal.GenderMale
	}
	if strings.Contains(label, labelGirls) {
		return internal.GenderFemale
	}
	return internal.GenderUnknown
}

func ClassCode(label string) string {
	if label == labelGirls {
		return "T"
	}
	return "P"
}

// ParseCategory reads a "<Label> <BirthYear> <Event>" cell. Categories without a
// boys/girls marker or with a non-numeric year yield no token.
func ParseCategory(cell string, currentYear int) (internal.CategoryToken, bool) {
	cell = strings.TrimSpace(cell)
	gender := GenderOf(cell)
	if gender == internal.GenderUnknown {
		return internal.CategoryToken{}, false
	}

	parts := strings.Fields(cell)
	if len(parts) < 3 {
		return internal.CategoryToken{}, false
	}
	birthYear, err := strconv.Atoi(parts[1])
	if err != nil {
		return internal.CategoryToken{}, false
	}

	return internal.CategoryToken{
		Gender: gender,
		Class:  ClassCode(parts[0]),
		Age:    currentYear - birthYear,
		Event:  strings.Join(parts[2:], " "),
	}, true
}

// KLLColumn is one fixed event column of the school sheet. Class and Age are
// written to the entry line verbatim.
type KLLColumn struct {
	Header string
	Class  string
	Age    int
}

// Header text is matched exactly, including the trailing space of N19.
var KLLColumns = []KLLColumn{
	{Header: "M19 lajit joihin osallistuja ilmoitetaan", Class: "M", Age: 19},
	{Header: "N19 lajit joihin osallistuja ilmoitetaan ", Class: "N", Age: 19},
	{Header: "M17 lajit joihin osallistuja ilmoittautuu", Class: "M", Age: 17},
	{Header: "N17 lajit joihin osallistuja ilmoittautuu", Class: "N", Age: 17},
	{Header: "M15 lajit joihin osallistuja ilmoittautuu", Class: "M", Age: 15},
	{Header: "N15 lajit joihin osallistuja ilmoittautuu", Class: "N", Age: 15},
	{Header: "P13 lajit joihin osallistuja ilmoittautuu", Class: "P", Age: 13},
	{Header: "T13 lajit joihin osallistuja ilmoittautuu", Class: "T", Age: 13},
}

func (c KLLColumn) Gender() internal.Gender {
	switch c.Class {
	case "M", "P":
		return internal.GenderMale
	case "N", "T":
		return internal.GenderFemale
	default:
		return internal.GenderUnknown
	}
}

// ParseEventList splits a comma-separated KLL cell into one token per event.
func ParseEventList(cell string, col KLLColumn) []internal.CategoryToken {
	gender := col.Gender()
	if gender == internal.GenderUnknown {
		return nil
	}
	var out []internal.CategoryToken
	for _, name := range strings.Split(cell, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, internal.CategoryToken{Gender: gender, Class: col.Class, Age: col.Age, Event: name})
	}
	return out
}
