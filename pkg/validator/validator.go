package validator

import (
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

const (
	minPasswordLen = 6
	maxPasswordLen = 128
	maxNameLen     = 100
	maxTitleLen    = 200
	maxTags        = 20
)

var (
	taskStatuses   = map[string]bool{"pending": true, "in_progress": true, "completed": true}
	taskPriorities = map[string]bool{"low": true, "medium": true, "high": true}
)

func ValidateRegister(email, password, name string) ValidationErrors {
	errs := make(ValidationErrors)

	validateEmail(email, errs)

	if utf8.RuneCountInString(strings.TrimSpace(name)) > maxNameLen {
		errs.Add("name", "Name is too long")
	}

	if len(password) < minPasswordLen {
		errs.Add("password", "Password must be at least 6 characters")
	} else if len(password) > maxPasswordLen {
		errs.Add("password", "Password is too long")
	}

	return errs
}

func ValidateLogin(email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	validateEmail(email, errs)

	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

// TaskFields holds the optional task attributes shared by create and update.
// Nil pointers are not validated.
type TaskFields struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
	Tags        []string
}

// ValidateTask checks a task payload. requireAll is set on create, where
// title and description must be present.
func ValidateTask(f TaskFields, requireAll bool) ValidationErrors {
	errs := make(ValidationErrors)

	if f.Title != nil || requireAll {
		title := ""
		if f.Title != nil {
			title = strings.TrimSpace(*f.Title)
		}
		if title == "" {
			errs.Add("title", "Title is required")
		} else if utf8.RuneCountInString(title) > maxTitleLen {
			errs.Add("title", "Title is too long")
		}
	}

	if requireAll && (f.Description == nil || strings.TrimSpace(*f.Description) == "") {
		errs.Add("description", "Description is required")
	}

	if f.Status != nil && *f.Status != "" && !taskStatuses[*f.Status] {
		errs.Add("status", "Status must be pending, in_progress, or completed")
	}
	if f.Priority != nil && *f.Priority != "" && !taskPriorities[*f.Priority] {
		errs.Add("priority", "Priority must be low, medium, or high")
	}

	if len(f.Tags) > maxTags {
		errs.Add("tags", "Too many tags")
	}

	return errs
}

func validateEmail(email string, errs ValidationErrors) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email address")
	}
}
