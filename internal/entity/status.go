package entity

import (
	"errors"
	"fmt"
)

// ErrInvalidStatus возвращается при разборе неизвестного статуса.
var ErrInvalidStatus = errors.New("invalid task status")

// Status - статус задачи. Нулевое значение означает "не задан".
type Status uint8

const (
	StatusUnset Status = iota
	StatusPending
	StatusInProgress
	StatusCompleted
)

var statusNames = map[Status]string{
	StatusPending:    "Pending",
	StatusInProgress: "In Progress",
	StatusCompleted:  "Completed",
}

// Statuses возвращает все допустимые статусы.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted}
}

// ParseStatus разбирает статус из его строкового представления.
func ParseStatus(s string) (Status, error) {
	for st, name := range statusNames {
		if name == s {
			return st, nil
		}
	}
	return StatusUnset, fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return ""
}

// Valid сообщает, является ли статус одним из допустимых.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	st, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}
