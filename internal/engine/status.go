package engine

import (
	"strings"

	"rexline/internal/domain"
)

// The status machine is pure: each apply* helper takes the current report
// and returns the post-transition report, or an InvalidTransitionError
// naming the attempted edge. Audit fields move with the status so a CAS
// write commits them together.

func applySubmit(rep domain.Report, now string) (domain.Report, error) {
	if rep.Status != domain.StatusDraft {
		return rep, InvalidTransitionError{From: rep.Status, To: domain.StatusPending}
	}
	if strings.TrimSpace(rep.Title) == "" || strings.TrimSpace(rep.Description) == "" {
		return rep, InvalidTransitionError{From: domain.StatusDraft, To: domain.StatusPending}
	}
	rep.Status = domain.StatusPending
	// A re-submission starts clean: the previous bounce reason is spent.
	rep.RejectionReason = nil
	rep.UpdatedAt = now
	return rep, nil
}

func applyValidate(rep domain.Report, validatorID, now string) (domain.Report, error) {
	if rep.Status != domain.StatusPending {
		return rep, InvalidTransitionError{From: rep.Status, To: domain.StatusValidated}
	}
	rep.Status = domain.StatusValidated
	rep.ValidatedBy = &validatorID
	rep.ValidatedAt = &now
	rep.RejectionReason = nil
	rep.UpdatedAt = now
	return rep, nil
}

// applyReject bounces a pending report back to draft. The reason is
// informational and does not block a future submission.
func applyReject(rep domain.Report, reason, now string) (domain.Report, error) {
	if rep.Status != domain.StatusPending {
		return rep, InvalidTransitionError{From: rep.Status, To: domain.StatusDraft}
	}
	rep.Status = domain.StatusDraft
	if strings.TrimSpace(reason) != "" {
		rep.RejectionReason = &reason
	} else {
		rep.RejectionReason = nil
	}
	rep.ValidatedBy = nil
	rep.ValidatedAt = nil
	rep.UpdatedAt = now
	return rep, nil
}

func applyArchive(rep domain.Report, now string) (domain.Report, error) {
	if rep.Status != domain.StatusValidated {
		return rep, InvalidTransitionError{From: rep.Status, To: domain.StatusArchived}
	}
	rep.Status = domain.StatusArchived
	// validated_by/validated_at hold only while the report is validated.
	rep.ValidatedBy = nil
	rep.ValidatedAt = nil
	rep.UpdatedAt = now
	return rep, nil
}

// applyDraftReset forces a report back to draft ahead of an admin edit.
func applyDraftReset(rep domain.Report, now string) (domain.Report, error) {
	switch rep.Status {
	case domain.StatusDraft:
		return rep, nil
	case domain.StatusPending, domain.StatusValidated:
		rep.Status = domain.StatusDraft
		rep.ValidatedBy = nil
		rep.ValidatedAt = nil
		rep.UpdatedAt = now
		return rep, nil
	default:
		return rep, InvalidTransitionError{From: rep.Status, To: domain.StatusDraft}
	}
}
