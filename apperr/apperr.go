// Package apperr holds the error codes returned to API clients.
//
// Every domain failure is an *Error carrying a Code. A Code has a stable
// identifier, a client-facing message, the HTTP status it maps to and a Kind
// that groups codes by the nature of the failure.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindFile
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindFile:
		return "file"
	case KindAuth:
		return "auth"
	default:
		return "internal"
	}
}

type Code struct {
	ID      string
	Message string
	Status  int
	Kind    Kind
}

var (
	// common
	InvalidMethodArgument = Code{"C001", "Invalid method argument", http.StatusBadRequest, KindValidation}
	UnknownServerError    = Code{"S001", "Unknown server error", http.StatusInternalServerError, KindInternal}

	// study group
	InvalidStudyPeriod         = Code{"SG001", "Invalid study period", http.StatusBadRequest, KindValidation}
	StudyGroupNotFound         = Code{"SG002", "Not found study group", http.StatusNotFound, KindNotFound}
	NotStudyLeader             = Code{"SG003", "Not study leader", http.StatusBadRequest, KindValidation}
	ExistingStudyGroupMember   = Code{"SG004", "Existing study group member", http.StatusBadRequest, KindValidation}
	StudyGroupMemberNotFound   = Code{"SG005", "Not found study group member", http.StatusNotFound, KindNotFound}
	StudyGroupQuestionNotFound = Code{"SG006", "Not found study group question", http.StatusNotFound, KindNotFound}
	NotMatchWriter             = Code{"SG007", "Not match writer", http.StatusBadRequest, KindValidation}
	NotMatchStudyGroup         = Code{"SG008", "Not match study group", http.StatusBadRequest, KindValidation}
	RecruitmentIsClosed        = Code{"SG009", "Recruitment is closed", http.StatusBadRequest, KindValidation}

	// file
	EmptyFile            = Code{"F001", "Uploaded empty file", http.StatusBadRequest, KindValidation}
	UnsupportedExtension = Code{"F002", "Unsupported file extension", http.StatusUnsupportedMediaType, KindValidation}
	OverMaxSize          = Code{"F003", "Over max size", http.StatusRequestEntityTooLarge, KindValidation}
	FailedResize         = Code{"F004", "Failed to resize image file", http.StatusServiceUnavailable, KindFile}
	FailedUpload         = Code{"F005", "Failed to upload image file", http.StatusServiceUnavailable, KindFile}
	FailedDelete         = Code{"F006", "Failed to delete image file", http.StatusServiceUnavailable, KindFile}

	// member
	TokenExpiration     = Code{"M001", "Token is expired", http.StatusUnauthorized, KindAuth}
	BlacklistDetection  = Code{"M002", "AccessToken is deprived", http.StatusUnauthorized, KindAuth}
	InvalidEmail        = Code{"M003", "Email is invalid", http.StatusBadRequest, KindValidation}
	MemberNotFound      = Code{"M004", "Not found member", http.StatusNotFound, KindNotFound}
	NicknameDuplication = Code{"M005", "Nickname Duplication", http.StatusBadRequest, KindValidation}
	RegisteredMember    = Code{"M006", "Member is already registered", http.StatusBadRequest, KindValidation}
	NotMatchMyPage      = Code{"M007", "Not match with my page member", http.StatusBadRequest, KindValidation}
	Unauthenticated     = Code{"M008", "Authentication required", http.StatusUnauthorized, KindAuth}
	InvalidCredentials  = Code{"M009", "Email or password does not match", http.StatusUnauthorized, KindAuth}

	// post
	PostNotFound       = Code{"P001", "not exist post", http.StatusNotFound, KindNotFound}
	PostLikeDuplicated = Code{"P002", "already liked this post", http.StatusBadRequest, KindValidation}
	PostLikeNotFound   = Code{"P003", "not found feed like", http.StatusNotFound, KindNotFound}

	// post comment
	ParentCommentNotFound = Code{"FC001", "parent comment not exist", http.StatusNotFound, KindNotFound}
	CommentNotFound       = Code{"FC002", "not exist comment", http.StatusNotFound, KindNotFound}
)

type Error struct {
	Code   Code
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Code.ID + ": " + e.Code.Message
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match on code, so errors.Is(err, apperr.New(apperr.PostNotFound))
// works regardless of detail or cause.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code.ID == e.Code.ID
}

func New(code Code) *Error {
	return &Error{Code: code}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// From extracts the first *Error in err's chain.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func HasCode(err error, code Code) bool {
	e, ok := From(err)
	return ok && e.Code.ID == code.ID
}

func IsKind(err error, kind Kind) bool {
	e, ok := From(err)
	return ok && e.Code.Kind == kind
}
