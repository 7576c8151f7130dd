package records

import (
	"regexp"
	"strings"
)

// CommandKind tags the result of parsing a chat message as a database
// command.
type CommandKind int

const (
	// CommandQuery means the message is not a database command and should
	// go through the normal query pipeline.
	CommandQuery CommandKind = iota
	// CommandAdd is an "add plant NAME location LOC[, LOC] [url URL]"
	// request.
	CommandAdd
	// CommandUpdate is an "update plant NAME FIELD VALUE" request.
	CommandUpdate
)

// ParsedCommand is the structured form of an add/update chat command.
type ParsedCommand struct {
	Kind      CommandKind
	PlantName string
	Locations []string
	PhotoURL  string
	Field     string
	Value     string
}

// Field keywords accepted in update commands, mapped to record fields.
var updateFields = map[string]string{
	"location": "location",
	"url":      "photo_url",
	"photo":    "photo_url",
	"watering": "watering_needs",
	"notes":    "care_notes",
}

var updateRe = regexp.MustCompile(`(?i)^update\s+plant\s+(.+?)\s+(location|url|photo|watering|notes)\s+(.+)$`)

// ParseCommand classifies a raw chat message as an add command, an update
// command, or an ordinary query. Matching is case-insensitive and keeps
// the original casing of names and values.
func ParseCommand(message string) ParsedCommand {
	trimmed := strings.TrimSpace(message)
	lower := strings.ToLower(trimmed)

	if strings.HasPrefix(lower, "add plant ") {
		return parseAdd(trimmed[len("add plant "):])
	}

	if m := updateRe.FindStringSubmatch(trimmed); m != nil {
		return ParsedCommand{
			Kind:      CommandUpdate,
			PlantName: strings.TrimSpace(m[1]),
			Field:     updateFields[strings.ToLower(m[2])],
			Value:     strings.TrimSpace(m[3]),
		}
	}

	return ParsedCommand{Kind: CommandQuery}
}

// parseAdd parses the remainder of an add command:
// "NAME location LOC[, LOC...] [url URL]". A missing location keyword
// degrades the command to a plain query rather than guessing.
func parseAdd(rest string) ParsedCommand {
	lower := strings.ToLower(rest)
	locIdx := strings.Index(lower, "location")
	if locIdx < 0 {
		return ParsedCommand{Kind: CommandQuery}
	}

	cmd := ParsedCommand{
		Kind:      CommandAdd,
		PlantName: strings.TrimSpace(rest[:locIdx]),
	}

	locPart := strings.TrimSpace(rest[locIdx+len("location"):])
	if urlIdx := strings.Index(strings.ToLower(locPart), " url "); urlIdx >= 0 {
		cmd.PhotoURL = strings.TrimSpace(locPart[urlIdx+len(" url "):])
		locPart = locPart[:urlIdx]
	}

	for _, loc := range strings.Split(locPart, ",") {
		if loc = strings.TrimSpace(loc); loc != "" {
			cmd.Locations = append(cmd.Locations, loc)
		}
	}

	if cmd.PlantName == "" || len(cmd.Locations) == 0 {
		return ParsedCommand{Kind: CommandQuery}
	}

	return cmd
}
