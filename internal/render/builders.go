package render

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Yosodog/Nexus-AMS-Discord/internal/discord"
	"github.com/Yosodog/Nexus-AMS-Discord/internal/domain"
)

// Artifact builders: pure transforms from a payload to a renderable message.
// No I/O, no clock reads — timestamps come in through the payload or the
// queue item so the same input always yields the same artifact.

const (
	colorWar        = 0xED4245
	colorDeparture  = 0xE67E22
	colorInactivity = 0xFEE75C
	colorBeige      = 0xD2B48C
	colorWarRoom    = 0x5865F2
)

const maxThreadNameLen = 100

func nationURL(id int64) string {
	return fmt.Sprintf("https://politicsandwar.com/nation/id=%d", id)
}

func nationLink(n *domain.NationSnapshot) string {
	name := n.Name
	if name == "" {
		name = "Unknown Nation"
	}
	if n.ID == 0 {
		return name
	}
	return fmt.Sprintf("[%s](%s)", name, nationURL(n.ID))
}

// militaryBlock renders the one-sided force summary used in war briefings.
func militaryBlock(n *domain.NationSnapshot) string {
	lines := []string{
		"Score: " + Number(n.Score),
		"Cities: " + Count(n.Cities),
		"Soldiers: " + Count(n.Soldiers),
		"Tanks: " + Count(n.Tanks),
		"Aircraft: " + Count(n.Aircraft),
		"Ships: " + Count(n.Ships),
		"Missiles: " + Count(n.Missiles),
		"Nukes: " + Count(n.Nukes),
	}
	return strings.Join(lines, "\n")
}

func sideField(label string, n *domain.NationSnapshot) discord.Field {
	header := nationLink(n)
	if n.Alliance != "" {
		header += " (" + n.Alliance + ")"
	}
	return discord.Field{
		Name:   label,
		Value:  header + "\n" + militaryBlock(n),
		Inline: true,
	}
}

// WarAlert builds the two-sided war briefing.
func WarAlert(p *domain.WarAlertPayload, declaredAt time.Time) *discord.Artifact {
	desc := fmt.Sprintf("**%s** has declared war on **%s**.",
		p.Attacker.Name, p.Defender.Name)
	if p.WarType != "" {
		desc = fmt.Sprintf("**%s** has declared a %s war on **%s**.",
			p.Attacker.Name, strings.ToLower(p.WarType), p.Defender.Name)
	}
	if p.Reason != "" {
		desc += "\n> " + p.Reason
	}

	footer := ""
	if p.WarID != 0 {
		footer = fmt.Sprintf("War ID: %d", p.WarID)
	}

	return &discord.Artifact{
		Title:       "⚔️ War Declared",
		Color:       colorWar,
		Description: desc,
		URL:         nationURL(p.Defender.ID),
		Fields: []discord.Field{
			sideField("Attacker", p.Attacker),
			sideField("Defender", p.Defender),
		},
		Footer:    footer,
		Timestamp: declaredAt,
	}
}

// AllianceDeparture builds the departure notice. The payload's left_at
// timestamp wins over the queue item's created_at when both are present.
func AllianceDeparture(p *domain.AllianceDeparturePayload, createdAt time.Time) *discord.Artifact {
	leftAt := domain.ParseTimestamp(p.LeftAt)
	if leftAt.IsZero() {
		leftAt = createdAt
	}

	newAlliance := p.NewAlliance
	if newAlliance == "" {
		newAlliance = "None"
	}

	fields := []discord.Field{
		{Name: "Nation", Value: nationLink(p.Nation), Inline: true},
	}
	if p.Nation.LeaderName != "" {
		fields = append(fields, discord.Field{Name: "Leader", Value: p.Nation.LeaderName, Inline: true})
	}
	fields = append(fields,
		discord.Field{Name: "Score", Value: Number(p.Nation.Score), Inline: true},
		discord.Field{Name: "From", Value: valueOr(p.PriorAlliance, Placeholder), Inline: true},
		discord.Field{Name: "To", Value: newAlliance, Inline: true},
		discord.Field{Name: "Left", Value: Timestamp(leftAt), Inline: false},
	)

	return &discord.Artifact{
		Title:     "📤 Alliance Departure",
		Color:     colorDeparture,
		Fields:    fields,
		URL:       nationURL(p.Nation.ID),
		Timestamp: leftAt,
	}
}

var dayCountRe = regexp.MustCompile(`(\d+)\s*days?`)

// InactivityThreshold returns the alert's day threshold: the structured
// field when present, otherwise a day count extracted from the free-text
// message ("inactive for 7 days"), otherwise 0.
func InactivityThreshold(p *domain.InactivityAlertPayload) int {
	if p.ThresholdDays != nil {
		return *p.ThresholdDays
	}
	if m := dayCountRe.FindStringSubmatch(p.Message); m != nil {
		var days int
		fmt.Sscanf(m[1], "%d", &days) //nolint:errcheck
		return days
	}
	return 0
}

// InactivityAlert builds the inactivity notice. The user mention goes into
// Content, not the embed, because embed text does not ping.
func InactivityAlert(p *domain.InactivityAlertPayload) *discord.Artifact {
	lastActive := domain.ParseTimestamp(p.LastActive)

	desc := p.Message
	if desc == "" {
		if days := InactivityThreshold(p); days > 0 {
			desc = fmt.Sprintf("No login for at least %d days.", days)
		} else {
			desc = "Member has gone inactive."
		}
	}

	content := ""
	if p.Mention && p.UserID != "" {
		content = "<@" + p.UserID + ">"
	}

	fields := []discord.Field{
		{Name: "Last Active", Value: Timestamp(lastActive), Inline: true},
	}
	if p.NationName != "" {
		fields = append([]discord.Field{
			{Name: "Nation", Value: p.NationName, Inline: true},
		}, fields...)
	}

	return &discord.Artifact{
		Content:     content,
		Title:       "💤 Inactivity Alert",
		Color:       colorInactivity,
		Description: desc,
		Fields:      fields,
	}
}

// BeigeSummaryLines renders the batch form of the beige report: one line per
// nation, newline-joined, ready for ChunkLines.
func BeigeSummaryLines(nations []domain.NationSnapshot) string {
	lines := make([]string, len(nations))
	for i, n := range nations {
		lines[i] = fmt.Sprintf("• **%s** (%s) — %s turns of beige left — score %s",
			valueOr(n.Name, "Unknown Nation"),
			nationURL(n.ID),
			Count(n.BeigeTurns),
			Number(n.Score),
		)
	}
	return strings.Join(lines, "\n")
}

// BeigeExit builds the single-nation form: a rich artifact for a nation
// leaving beige protection.
func BeigeExit(n *domain.NationSnapshot) *discord.Artifact {
	return &discord.Artifact{
		Title:       "🎯 Beige Exit",
		Color:       colorBeige,
		Description: fmt.Sprintf("%s has exited beige and is raidable again.", nationLink(n)),
		Fields: []discord.Field{
			{Name: "Score", Value: Number(n.Score), Inline: true},
			{Name: "Cities", Value: Count(n.Cities), Inline: true},
			{Name: "Soldiers", Value: Count(n.Soldiers), Inline: true},
		},
		URL: nationURL(n.ID),
	}
}

// WarRoomName derives the thread title, truncated to Discord's limit.
func WarRoomName(p *domain.WarRoomPayload) string {
	name := fmt.Sprintf("War Room: %s", valueOr(p.Target.Name, "Unknown Nation"))
	if p.WarID != 0 {
		name = fmt.Sprintf("%s (#%d)", name, p.WarID)
	}
	if len(name) > maxThreadNameLen {
		name = name[:maxThreadNameLen]
	}
	return name
}

// WarRoomBriefing builds the thread's opening post: the target's military
// breakdown for the assigned attackers.
func WarRoomBriefing(p *domain.WarRoomPayload) *discord.Artifact {
	footer := ""
	if p.WarID != 0 {
		footer = fmt.Sprintf("War ID: %d", p.WarID)
	}
	return &discord.Artifact{
		Title:       "🗡️ Target Briefing",
		Color:       colorWarRoom,
		Description: fmt.Sprintf("Coordinate your attacks on %s here.", nationLink(p.Target)),
		Fields: []discord.Field{
			sideField("Target", p.Target),
		},
		URL:    nationURL(p.Target.ID),
		Footer: footer,
	}
}

// MentionLines renders one member mention per line so assignment pings can
// be chunked with the same machinery as the beige summaries.
func MentionLines(userIDs []string) string {
	lines := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id == "" {
			continue
		}
		lines = append(lines, "<@"+id+">")
	}
	return strings.Join(lines, "\n")
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
