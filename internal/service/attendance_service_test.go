package service

import (
	"english_club_backend/internal/model"
	"english_club_backend/internal/util"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkAttendancePresentCreditsOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := testCtx(t)
	staff := env.createUser(t, "staff", 0)
	member := env.createUser(t, "member", 0)
	req := AttendanceReq{UserID: member.ID, Status: model.AttendancePresent, Date: "2024-05-01"}

	record, err := env.attendance.Mark(ctx, staff.ID, req)
	require.NoError(t, err)
	assert.Equal(t, 30, record.XPAwarded)
	assert.Equal(t, staff.ID, record.MarkedBy)
	require.NotNil(t, record.User)
	assert.Equal(t, member.ID, record.User.ID)

	req.Notes = "on time"
	again, err := env.attendance.Mark(ctx, staff.ID, req)
	require.NoError(t, err)
	assert.Equal(t, record.ID, again.ID)
	assert.Equal(t, "on time", again.Notes)

	assert.Equal(t, 30, env.reloadUser(t, member.ID).XP)
	entry, err := env.ledger.FindBySourceAndReference(ctx, model.XPSourceAttendance, record.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 30, entry.Amount)
	assert.Equal(t, int64(1), env.count(t, &model.Attendance{}))
}

func TestMarkAttendanceAbsentThenPresent(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := testCtx(t)
	staff := env.createUser(t, "staff", 0)
	member := env.createUser(t, "member", 0)

	record, err := env.attendance.Mark(ctx, staff.ID, AttendanceReq{UserID: member.ID, Status: model.AttendanceAbsent, Date: "2024-05-02"})
	require.NoError(t, err)
	assert.Equal(t, 0, record.XPAwarded)
	assert.Equal(t, int64(0), env.count(t, &model.XPTransaction{}))

	record, err = env.attendance.Mark(ctx, staff.ID, AttendanceReq{UserID: member.ID, Status: model.AttendancePresent, Date: "2024-05-02"})
	require.NoError(t, err)
	assert.Equal(t, 30, record.XPAwarded)
	assert.Equal(t, 30, env.reloadUser(t, member.ID).XP)
}

func TestMarkAttendanceNeverDebits(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := testCtx(t)
	staff := env.createUser(t, "staff", 0)
	member := env.createUser(t, "member", 0)

	_, err := env.attendance.Mark(ctx, staff.ID, AttendanceReq{UserID: member.ID, Status: model.AttendancePresent, Date: "2024-05-03"})
	require.NoError(t, err)

	record, err := env.attendance.Mark(ctx, staff.ID, AttendanceReq{UserID: member.ID, Status: model.AttendanceLate, Date: "2024-05-03"})
	require.NoError(t, err)
	assert.Equal(t, model.AttendanceLate, record.Status)
	assert.Equal(t, 30, record.XPAwarded)
	assert.Equal(t, 30, env.reloadUser(t, member.ID).XP)

	sum, err := env.ledger.SumByUser(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, sum)
}

func TestMarkAttendanceUnknownUser(t *testing.T) {
	env := newTestEnv(t, nil)
	staff := env.createUser(t, "staff", 0)

	_, err := env.attendance.Mark(testCtx(t), staff.ID, AttendanceReq{UserID: 404, Status: model.AttendancePresent, Date: "2024-05-04"})

	var verr *util.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "user_id")
}

func TestListAttendanceByDate(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := testCtx(t)
	staff := env.createUser(t, "staff", 0)
	member := env.createUser(t, "member", 0)

	_, err := env.attendance.Mark(ctx, staff.ID, AttendanceReq{UserID: member.ID, Status: model.AttendancePresent, Date: "2024-05-05"})
	require.NoError(t, err)

	records, date, err := env.attendance.List(ctx, "2024-05-05")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-05", date)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Marker)
	assert.Equal(t, staff.ID, records[0].Marker.ID)

	records, _, err = env.attendance.List(ctx, "2024-05-06")
	require.NoError(t, err)
	assert.Empty(t, records)
}
