package service

import "errors"

// Recoverable conflict errors: the caller can retry or pick another action.
var (
	// ErrConflictOfInterest indicates the judge belongs to a team owning a
	// submission in the requested scope.
	ErrConflictOfInterest = errors.New("judge has a conflict of interest in this scope")
	// ErrDuplicateAssignment indicates the judge already holds an identical assignment.
	ErrDuplicateAssignment = errors.New("judge is already assigned to this scope")
	// ErrHasActiveScores indicates an unassignment would orphan active scores
	// and the caller did not force removal.
	ErrHasActiveScores = errors.New("judge has active scores in this scope")
	// ErrStaleRevision indicates the caller's expected revision no longer matches.
	ErrStaleRevision = errors.New("score revision is stale")
	// ErrSubmissionFinalized indicates the submission reached a terminal status
	// and can no longer be scored.
	ErrSubmissionFinalized = errors.New("submission is finalized")
)

// Validation errors: rejected before any write.
var (
	// ErrInvalidCriterion indicates a criterion name not declared by the rubric.
	ErrInvalidCriterion = errors.New("criterion is not declared in the rubric")
	// ErrOutOfRange indicates a criterion value outside its declared bounds.
	ErrOutOfRange = errors.New("criterion value is out of range")
	// ErrMissingCriterion indicates the payload omitted a declared criterion.
	ErrMissingCriterion = errors.New("rubric criterion is missing from the payload")
)

// State errors: the specific action is blocked, nothing else changes.
var (
	// ErrInvalidTransition indicates the lifecycle forbids the requested move.
	ErrInvalidTransition = errors.New("invalid submission status transition")
	// ErrRankMismatch indicates WINNER was requested for a submission outside
	// the configured winner slots.
	ErrRankMismatch = errors.New("submission rank does not qualify for winner")
	// ErrSubmissionNotJudgeable indicates the submission is not open for scoring.
	ErrSubmissionNotJudgeable = errors.New("submission is not in a judgeable status")
	// ErrJudgeNotAssigned indicates the judge holds no assignment covering the submission.
	ErrJudgeNotAssigned = errors.New("judge is not assigned to this submission")
	// ErrJudgingNotComplete indicates the event still has uncovered submissions.
	ErrJudgingNotComplete = errors.New("submissions without scores remain")
	// ErrJudgingClosed indicates the event is no longer in its judging phase.
	ErrJudgingClosed = errors.New("judging is closed for this hackathon")
	// ErrNotAJudge indicates the user lacks the judge capability.
	ErrNotAJudge = errors.New("user cannot act as a judge")
	// ErrDeadlinePassed indicates a submission attempt after the hackathon deadline.
	ErrDeadlinePassed = errors.New("hackathon deadline has passed")
)

// Integrity errors: the request is well-formed but clashes with records that
// already exist.
var (
	// ErrCriterionSetLocked indicates an attempt to replace a rubric that
	// existing score records already reference.
	ErrCriterionSetLocked = errors.New("criterion set is locked by existing scores")
)

// Not-found sentinels shared across services.
var (
	ErrHackathonNotFound  = errors.New("hackathon not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrJudgeNotFound      = errors.New("judge not found")
	ErrRubricNotFound     = errors.New("criterion set not found")
)
