package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidLogin    = errors.New("invalid credentials")
	ErrConflict        = errors.New("already exists")
	ErrEmailTaken      = errors.New("email already registered")
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
	ErrNotEnrolled     = errors.New("not enrolled in this course")

	// tracker
	ErrModuleLocked       = errors.New("module is locked until the previous module is completed")
	ErrQuizNotPassed      = errors.New("quiz has not been passed yet")
	ErrPracticeIncomplete = errors.New("every required task needs approved evidence")
	ErrUnknownModule      = errors.New("enrollment references a module outside the course")
	ErrDuplicateOrder     = errors.New("two modules share the same order")
	ErrWrongModuleKind    = errors.New("module kind does not support this operation")

	// evidence
	ErrEvidenceAlreadyEvaluated = errors.New("evidence has already been evaluated")
	ErrEvidenceAlreadyApproved  = errors.New("task already has approved evidence")
	ErrInvalidDecision          = errors.New("decision must be APROBADA or RECHAZADA")
	ErrEvidenceLocked           = errors.New("approved evidence cannot be deleted")
	ErrInvalidFile              = errors.New("invalid file")

	ErrCourseNotCompleted = errors.New("course is not completed")

	// password reset
	ErrResetTokenInvalid = errors.New("reset token is invalid or expired")
	ErrResetTokenUsed    = errors.New("reset link has already been used")
	ErrResetTokenExpired = errors.New("reset link has expired, request a new one")
)
