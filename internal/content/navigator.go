package content

import "github.com/felixgeelhaar/learneasy/internal/domain"

// Next returns the lesson's forward link. The target is not checked for
// existence; resolving it may still fail with ErrLessonNotFound.
func Next(l *domain.Lesson) (string, bool) {
	if l == nil || l.NextLessonID == "" {
		return "", false
	}
	return l.NextLessonID, true
}

// Prev returns the lesson's backward link, unchecked like Next
func Prev(l *domain.Lesson) (string, bool) {
	if l == nil || l.PrevLessonID == "" {
		return "", false
	}
	return l.PrevLessonID, true
}
