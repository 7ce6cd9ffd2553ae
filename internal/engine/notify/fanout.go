// Package notify computes notification fan-out for lifecycle events. It
// maps (event, report, actor, roster) to payloads and never delivers
// anything itself; the orchestrator hands the result to a dispatcher.
package notify

import (
	"fmt"

	"rexline/internal/domain"
)

type Event string

const (
	EventSubmitted Event = "report.submitted"
	EventValidated Event = "report.validated"
	EventRejected  Event = "report.rejected"
	EventPublished Event = "report.published"
)

// Roster is the recipient universe the orchestrator resolved for the
// report's organization.
type Roster struct {
	Validators []domain.Actor
	Members    []domain.Actor
}

// Payload is a computed notification without identity or timestamp; the
// dispatcher assigns those when it persists the batch.
type Payload struct {
	RecipientID string
	Type        string
	Title       string
	Content     string
	Link        string
}

// Fanout computes the recipient payloads for one lifecycle event.
func Fanout(evt Event, rep domain.Report, actor domain.Actor, roster Roster) []Payload {
	link := "/reports/" + rep.ID
	switch evt {
	case EventValidated:
		return []Payload{{
			RecipientID: rep.AuthorID,
			Type:        string(EventValidated),
			Title:       "Report validated",
			Content:     fmt.Sprintf("%q was validated.", rep.Title),
			Link:        link,
		}}
	case EventRejected:
		content := fmt.Sprintf("%q was sent back to draft.", rep.Title)
		if rep.RejectionReason != nil && *rep.RejectionReason != "" {
			content = fmt.Sprintf("%q was sent back to draft: %s", rep.Title, *rep.RejectionReason)
		}
		return []Payload{{
			RecipientID: rep.AuthorID,
			Type:        string(EventRejected),
			Title:       "Report rejected",
			Content:     content,
			Link:        link,
		}}
	case EventSubmitted:
		var out []Payload
		for _, v := range roster.Validators {
			out = append(out, Payload{
				RecipientID: v.ID,
				Type:        string(EventSubmitted),
				Title:       "Report awaiting validation",
				Content:     fmt.Sprintf("%q was submitted for validation.", rep.Title),
				Link:        link,
			})
		}
		return out
	case EventPublished:
		var out []Payload
		for _, m := range roster.Members {
			if m.ID == rep.AuthorID {
				continue
			}
			out = append(out, Payload{
				RecipientID: m.ID,
				Type:        string(EventPublished),
				Title:       "New report published",
				Content:     fmt.Sprintf("%q is now visible.", rep.Title),
				Link:        link,
			})
		}
		return out
	default:
		return nil
	}
}
