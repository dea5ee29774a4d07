package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingStatusTransitions(t *testing.T) {
	cases := []struct {
		from    BookingStatus
		to      BookingStatus
		allowed bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCancelled, true},
		{BookingPending, BookingCompleted, false},
		{BookingConfirmed, BookingCompleted, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingPending, false},
		{BookingCancelled, BookingPending, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingCompleted, BookingPending, false},
		{BookingCompleted, BookingCancelled, false},
		{BookingPending, BookingPending, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestBookingStatusValid(t *testing.T) {
	assert.True(t, BookingPending.Valid())
	assert.True(t, BookingCompleted.Valid())
	assert.False(t, BookingStatus("archived").Valid())
}

func TestBookingActive(t *testing.T) {
	b := &Booking{Status: BookingPending}
	assert.True(t, b.Active())
	b.Status = BookingConfirmed
	assert.True(t, b.Active())
	b.Status = BookingCancelled
	assert.False(t, b.Active())
}

func TestStudentRefConstructors(t *testing.T) {
	linked := LinkedStudent(&Student{ID: "s1", Name: "Maya", ProfileImage: "img.png"})
	assert.Equal(t, StudentRefLinked, linked.Kind)
	assert.Equal(t, "s1", linked.StudentID)
	assert.Equal(t, "Maya", linked.Name)

	named := NamedStudent("Walk-in")
	assert.Equal(t, StudentRefNamed, named.Kind)
	assert.Empty(t, named.StudentID)
	assert.Equal(t, "Walk-in", named.Name)

	blank := NamedStudent("")
	assert.Equal(t, "Unknown Student", blank.Name)
}

func TestTeacherHasSlot(t *testing.T) {
	teacher := &Teacher{Availability: []string{"Mon 10:00", "Tue 14:00"}}
	assert.True(t, teacher.HasSlot("Mon 10:00"))
	assert.False(t, teacher.HasSlot("mon 10:00"))
	assert.False(t, teacher.HasSlot("Wed 09:00"))
}
