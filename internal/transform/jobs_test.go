package transform

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talent-pipeline/internal/frame"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func jobFrame(rows ...frame.Row) *frame.Frame {
	cols := []string{
		ColJobID, ColStartDate, ColDate, ColCreationDate, ColCode, ColCodeRef,
		ColJobTitle, ColName, ColWorkflowStep, ColCountry, ColLevel,
		ColLocation, ColContractLoc,
	}
	return frame.New(cols, rows...)
}

func TestJobsClosedWithoutCloseDate(t *testing.T) {
	in := jobFrame(frame.Row{
		ColJobID:        "101",
		ColStartDate:    day(2024, 11, 1),
		ColWorkflowStep: "Closed - Filled",
		ColJobTitle:     "Analyst",
	})

	out, err := Jobs(in, JobOptions{RunDate: day(2025, 1, 1)})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())

	r := out.Rows[0]
	assert.Equal(t, StatusClosed, r[ColJobStatus])
	assert.Equal(t, 61, r[ColDaysOpen])
	assert.Equal(t, "60 - 90 Days", r[ColDaysRange])
	assert.Equal(t, "2025", r[ColJobYear])
	assert.Equal(t, "LUSA-101", r[ColPrismReqID])
}

func TestJobsDaysOpenNeverNegative(t *testing.T) {
	in := jobFrame(
		frame.Row{ColJobID: "1", ColStartDate: day(2025, 3, 1), ColWorkflowStep: "Open"},
		frame.Row{ColJobID: "2", ColStartDate: day(2024, 12, 31), ColWorkflowStep: "Open"},
	)
	out, err := Jobs(in, JobOptions{RunDate: day(2025, 1, 1)})
	require.NoError(t, err)

	for _, r := range out.Rows {
		d, ok := r[ColDaysOpen].(int)
		require.True(t, ok)
		assert.GreaterOrEqual(t, d, 0)
	}
	assert.Equal(t, 0, out.Rows[0][ColDaysOpen])
	assert.Equal(t, "0 - 30 Days", out.Rows[0][ColDaysRange])
}

func TestJobsWithCloseDate(t *testing.T) {
	cols := []string{ColJobID, ColStartDate, ColWorkflowStep, ColDateClosed, ColDaysOpen}
	in := frame.New(cols,
		frame.Row{ColJobID: "1", ColStartDate: day(2023, 1, 1), ColWorkflowStep: "Cancelled", ColDateClosed: day(2023, 8, 1), ColDaysOpen: 999},
		frame.Row{ColJobID: "2", ColStartDate: day(2023, 1, 1), ColWorkflowStep: "Open - Sourcing", ColDaysOpen: 5},
		frame.Row{ColJobID: "3", ColStartDate: day(2023, 5, 1), ColWorkflowStep: "Filled", ColDateClosed: day(2023, 4, 1)},
	)

	out, err := Jobs(in, JobOptions{RunDate: day(2025, 1, 1)})
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())

	byID := map[string]frame.Row{}
	for _, r := range out.Rows {
		byID[r[ColJobID].(string)] = r
	}

	assert.Equal(t, 212, byID["1"][ColDaysOpen])
	assert.Equal(t, "2023", byID["1"][ColJobYear])
	assert.Equal(t, "180+ Days", byID["1"][ColDaysRange])

	assert.Nil(t, byID["2"][ColDaysOpen])
	assert.Nil(t, byID["2"][ColJobYear])
	assert.Nil(t, byID["2"][ColDaysRange])

	assert.Equal(t, 0, byID["3"][ColDaysOpen])
}

func TestJobStatus(t *testing.T) {
	tests := []struct {
		step any
		want string
	}{
		{"Open - Sourcing", StatusOpen},
		{"Draft", StatusDraft},
		{"On Hold - Budget", StatusOnHold},
		{"Closed - Filled", StatusClosed},
		{"Cancelled", StatusClosed},
		{"Open after Draft", StatusOpen},
		{"Something else", StatusClosed},
		{nil, StatusClosed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, JobStatus(tt.step), "step %v", tt.step)
	}
}

func TestAgeBucket(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{0, "0 - 30 Days"},
		{29, "0 - 30 Days"},
		{30, "30 - 60 Days"},
		{59, "30 - 60 Days"},
		{60, "60 - 90 Days"},
		{90, "90 - 180 Days"},
		{179, "90 - 180 Days"},
		{180, "180+ Days"},
		{5000, "180+ Days"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AgeBucket(tt.days), "days %d", tt.days)
	}
}

func TestJobsBackfills(t *testing.T) {
	in := jobFrame(
		frame.Row{
			ColJobID:        "1",
			ColDate:         day(2024, 2, 1),
			ColCreationDate: day(2024, 1, 1),
			ColCode:         "Closed 2024",
			ColCodeRef:      "REQ-77",
			ColName:         "Generic Name",
			ColWorkflowStep: "Draft",
			ColContractLoc:  "Toronto",
		},
		frame.Row{
			ColJobID:        "2",
			ColCreationDate: day(2024, 1, 1),
			ColCode:         "OPS-1",
			ColCodeRef:      "REQ-78",
			ColJobTitle:     "Director, Sales",
			ColName:         "ignored",
			ColLocation:     "New York",
			ColContractLoc:  "Toronto",
		},
	)

	out, err := Jobs(in, JobOptions{RunDate: day(2024, 3, 1)})
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())

	r1, r2 := out.Rows[0], out.Rows[1]
	assert.Equal(t, day(2024, 2, 1), r1[ColStartDate])
	assert.Equal(t, day(2024, 1, 1), r2[ColStartDate])
	assert.Equal(t, "REQ-77", r1[ColCode])
	assert.Equal(t, "OPS-1", r2[ColCode])
	assert.Equal(t, "Generic Name", r1[ColJobTitle])
	assert.Equal(t, "Director, Sales", r2[ColJobTitle])
	assert.Equal(t, "Toronto", r1[ColLocation])
	assert.Equal(t, "New York", r2[ColLocation])
}

func TestJobsKeepsExistingPrismID(t *testing.T) {
	in := frame.New([]string{ColJobID, ColPrismReqID, ColStartDate},
		frame.Row{ColJobID: "5", ColPrismReqID: "P-5", ColStartDate: day(2024, 1, 1)})
	out, err := Jobs(in, JobOptions{RunDate: day(2024, 1, 2)})
	require.NoError(t, err)
	assert.Equal(t, "P-5", out.Rows[0][ColPrismReqID])
}

func TestJobsLevels(t *testing.T) {
	in := jobFrame(
		frame.Row{ColJobID: "1", ColJobTitle: "Senior Analyst, Risk"},
		frame.Row{ColJobID: "2", ColJobTitle: "Engineer", ColLevel: "senior manager"},
		frame.Row{ColJobID: "3", ColJobTitle: "Director, Ops", ColCountry: "Canada"},
		frame.Row{ColJobID: "4", ColJobTitle: "Account Executive"},
		frame.Row{ColJobID: "5", ColJobTitle: "Chef"},
		frame.Row{ColJobID: "6"},
	)
	out, err := Jobs(in, JobOptions{RunDate: day(2025, 1, 1)})
	require.NoError(t, err)

	var ids []string
	levels := map[string]any{}
	for _, r := range out.Rows {
		id := r[ColJobID].(string)
		ids = append(ids, id)
		levels[id] = r[ColLevel]
	}

	// Rows with a level precede inferred rows.
	assert.Equal(t, []string{"2", "3", "1", "4", "5", "6"}, ids)
	assert.Equal(t, "Analyst", levels["1"])
	assert.Equal(t, "Senior Manager", levels["2"])
	assert.Equal(t, "Non Manager", levels["3"])
	assert.Equal(t, "Account Executive", levels["4"])
	assert.Equal(t, BlankLevel, levels["5"])
	assert.Equal(t, BlankLevel, levels["6"])
}

func TestInferLevelSinglePattern(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Data Analyst", "Analyst"},
		{"Account Executive", "Account Executive"},
		{"Asst Mgr, Branch", "Assistant Manager"},
		{"Store Mgr", "Manager"},
		{"Dir of Finance", "Director"},
		{"AVP Operations", "Assistant Vice President"},
		{"Vice President, Legal", "Vice President"},
		{"Software Engineer", BlankLevel},
		{"", BlankLevel},
	}
	rules := DefaultLevelRules()
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, InferLevel(tt.title, rules))
		})
	}
	assert.Equal(t, BlankLevel, InferLevel(nil, rules))
}

func TestJobsDedupKeepsFirst(t *testing.T) {
	in := jobFrame(
		frame.Row{ColJobID: "1", ColJobTitle: "Chef", ColLocation: "first"},
		frame.Row{ColJobID: "1", ColJobTitle: "Chef", ColLocation: "second"},
	)
	out, err := Jobs(in, JobOptions{RunDate: day(2025, 1, 1)})
	require.NoError(t, err)
	require.Equal(t, 1, out.Len())
	assert.Equal(t, "first", out.Rows[0][ColLocation])
}

func TestJobsErrors(t *testing.T) {
	empty := frame.New([]string{ColJobID})
	out, err := Jobs(empty, JobOptions{})
	require.NoError(t, err)
	assert.Same(t, empty, out)

	noID := frame.New([]string{"Name"}, frame.Row{"Name": "x"})
	_, err = Jobs(noID, JobOptions{RunDate: day(2025, 1, 1)})
	assert.True(t, errors.Is(err, frame.ErrMissingColumn))

	_, err = Jobs(jobFrame(frame.Row{ColJobID: "1"}), JobOptions{})
	assert.ErrorIs(t, err, ErrNoRunDate)
}

func TestJobsDoesNotMutateInput(t *testing.T) {
	in := jobFrame(frame.Row{ColJobID: "1", ColWorkflowStep: "Open"})
	before := in.Clone()
	_, err := Jobs(in, JobOptions{RunDate: day(2025, 1, 1)})
	require.NoError(t, err)
	assert.Equal(t, before, in)
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Non Manager", titleCase("NON MANAGER"))
	assert.Equal(t, "Senior Vice-President", titleCase("senior vice-president"))
	assert.Equal(t, "Mit", titleCase("MIT"))
}

func TestJobsYearFromCloseDateOnOpenRows(t *testing.T) {
	cols := []string{ColJobID, ColStartDate, ColWorkflowStep, ColDateClosed}
	in := frame.New(cols,
		frame.Row{ColJobID: "1", ColStartDate: day(2023, 1, 1), ColWorkflowStep: "Open - Reopened", ColDateClosed: day(2023, 6, 1)},
	)
	out, err := Jobs(in, JobOptions{RunDate: day(2025, 1, 1)})
	require.NoError(t, err)

	r := out.Rows[0]
	assert.Equal(t, StatusOpen, r[ColJobStatus])
	assert.Equal(t, "2023", r[ColJobYear])
	assert.Nil(t, r[ColDaysOpen], "only closed jobs are aged")
	assert.Nil(t, r[ColDaysRange])
}
