package crisis

import (
	"sort"
	"strings"
)

// Level grades how urgently a message needs a human referral.
type Level string

const (
	None    Level = "none"
	Concern Level = "concern"
	High    Level = "high"
)

// Assessment is the result of screening one user message.
type Assessment struct {
	Level   Level
	Score   int
	Matches []string
}

// Flagged reports whether the message should open the referral surface.
func (a Assessment) Flagged() bool {
	return a.Level == High
}

const (
	highWeight       = 5
	concernWeight    = 2
	concernThreshold = 4
)

var highPhrases = []string{
	"kill myself", "killing myself", "suicide", "suicidal", "end my life", "end it all",
	"want to die", "wanna die", "better off dead", "no reason to live", "take my own life",
	"hurt myself", "harm myself", "self harm", "self-harm", "cut myself", "cutting myself",
	"overdose", "don't want to be alive", "do not want to be alive", "not worth living",
}

var concernPhrases = []string{
	"hopeless", "worthless", "can't go on", "cannot go on", "give up on everything",
	"no way out", "i'm a burden", "i am a burden", "empty inside", "nobody would care",
	"no one would care", "can't take it anymore", "cannot take it anymore", "trapped",
	"disappear forever",
}

var replacer = strings.NewReplacer("’", "'", "‘", "'", "\n", " ", "\t", " ")

// Screen grades text against the high-risk and concern phrase lists.
func Screen(text string) Assessment {
	normalized := normalize(text)
	if normalized == "" {
		return Assessment{Level: None}
	}

	score := 0
	matches := make([]string, 0, 2)
	high := false

	for _, phrase := range highPhrases {
		if strings.Contains(normalized, phrase) {
			score += highWeight
			matches = append(matches, phrase)
			high = true
		}
	}
	for _, phrase := range concernPhrases {
		if strings.Contains(normalized, phrase) {
			score += concernWeight
			matches = append(matches, phrase)
		}
	}

	sort.Strings(matches)

	switch {
	case high:
		return Assessment{Level: High, Score: score, Matches: matches}
	case score >= concernThreshold:
		// Several concern signals together read as high risk.
		return Assessment{Level: High, Score: score, Matches: matches}
	case score > 0:
		return Assessment{Level: Concern, Score: score, Matches: matches}
	default:
		return Assessment{Level: None}
	}
}

func normalize(text string) string {
	lowered := strings.ToLower(replacer.Replace(text))
	return strings.Join(strings.Fields(lowered), " ")
}
