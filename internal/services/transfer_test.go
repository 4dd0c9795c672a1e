package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pintlog-backend-go/internal/models"
	"pintlog-backend-go/internal/store"
)

func newTransferFixture(t *testing.T) (*Transfer, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.CreateUser(ctx, models.User{ID: "a", Username: "alice", PasswordHash: "h"}))
	require.NoError(t, mem.CreateUser(ctx, models.User{ID: "b", Username: "bob", PasswordHash: "h"}))
	users := NewUsers(mem, mem, testTokens, testAdmin)
	return NewTransfer(mem, users), mem
}

func TestTransfer_ExportUser(t *testing.T) {
	transfer, mem := newTransferFixture(t)
	ctx := context.Background()
	require.NoError(t, mem.UpsertAdd(ctx, "a", "2024-03-01", "20:00:00", models.Counts{Pints: 2, Liters33: 1}))
	require.NoError(t, mem.UpsertAdd(ctx, "a", "2024-03-02", "00:00:00", models.Counts{HalfPints: 3}))

	var buf bytes.Buffer
	require.NoError(t, transfer.ExportUser(ctx, "a", &buf))
	assert.Equal(t, "date,time,pints,half_pints,33cl\n"+
		"2024-03-02,00:00:00,0,3,0\n"+
		"2024-03-01,20:00:00,2,0,1\n", buf.String())
}

func TestTransfer_ExportAll(t *testing.T) {
	transfer, mem := newTransferFixture(t)
	ctx := context.Background()
	require.NoError(t, mem.UpsertAdd(ctx, "b", "2024-03-01", "20:00:00", models.Counts{Pints: 1}))
	require.NoError(t, mem.UpsertAdd(ctx, "a", "2024-03-01", "21:00:00", models.Counts{Pints: 4}))

	var buf bytes.Buffer
	require.NoError(t, transfer.ExportAll(ctx, &buf))
	assert.Equal(t, "user,date,time,pints,half_pints,33cl\n"+
		"alice,2024-03-01,21:00:00,4,0,0\n"+
		"bob,2024-03-01,20:00:00,1,0,0\n", buf.String())
}

func TestTransfer_ExportStorageUnavailable(t *testing.T) {
	transfer, mem := newTransferFixture(t)
	mem.SetErr(errors.New("offline"))
	var buf bytes.Buffer
	assert.Equal(t, 503, statusOf(t, transfer.ExportAll(context.Background(), &buf)))
	assert.Equal(t, 503, statusOf(t, transfer.ExportUser(context.Background(), "a", &buf)))
}

func TestTransfer_ImportSingleUser(t *testing.T) {
	transfer, mem := newTransferFixture(t)
	ctx := context.Background()
	require.NoError(t, mem.UpsertAdd(ctx, "a", "2024-03-01", "20:00:00", models.Counts{Pints: 1}))

	input := "date,time,pints,half_pints,33cl\n" +
		"2024-03-01,20:00:00,2,0,0\n" +
		"2024-03-02,,0,1,\n" +
		"2024-03-03,21:15,0,0,2\n"
	result, err := transfer.Import(ctx, strings.NewReader(input), ImportOptions{UserID: "a"})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.CreatedUsers)

	records, err := mem.Query(ctx, "a", models.DateRange{})
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, models.ConsumptionRecord{ID: records[0].ID, UserID: "a", Date: "2024-03-03", Time: "21:15:00", Liters33: 2}, records[0])
	assert.Equal(t, "00:00:00", records[1].Time)
	assert.Equal(t, 3, records[2].Pints)
}

func TestTransfer_ImportReportsBadRows(t *testing.T) {
	transfer, _ := newTransferFixture(t)
	input := "date,time,pints,half_pints,33cl\n" +
		"2024-03-01,20:00:00,1,0,0\n" +
		",20:00:00,1,0,0\n" +
		"01/03/2024,20:00:00,1,0,0\n" +
		"2024-03-01,late,1,0,0\n" +
		"2024-03-01,20:00:00,-1,0,0\n" +
		"2024-03-01,20:00:00,many,0,0\n" +
		",,,,\n" +
		"2024-03-04,10:00:00,0,0,1\n"
	result, err := transfer.Import(context.Background(), strings.NewReader(input), ImportOptions{UserID: "a"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, []string{
		"line 3: empty date",
		`line 4: invalid date "01/03/2024"`,
		`line 5: invalid time "late"`,
		"line 6: pints value -1 out of range",
		`line 7: invalid pints value "many"`,
	}, result.Errors)
}

func TestTransfer_ImportWithUsersAndFrenchHeaders(t *testing.T) {
	transfer, mem := newTransferFixture(t)
	ctx := context.Background()

	input := "\uFEFFUtilisateur,Date,Heure,Pintes,Demis,33cl\n" +
		"alice,2024-03-01,20:00:00,1,0,0\n" +
		"carol,2024-03-01,21:00:00,2,0,0\n" +
		"carol,2024-03-02,21:00:00,1,1,0\n" +
		",2024-03-02,21:00:00,1,1,0\n"
	result, err := transfer.Import(ctx, strings.NewReader(input), ImportOptions{WithUser: true})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, []string{"line 5: empty user"}, result.Errors)
	require.Len(t, result.CreatedUsers, 1)
	assert.Equal(t, "carol", result.CreatedUsers[0].Username)
	assert.NotEmpty(t, result.CreatedUsers[0].Password)

	carol, err := mem.UserByName(ctx, "carol")
	require.NoError(t, err)
	records, err := mem.Query(ctx, carol.ID, models.DateRange{})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestTransfer_ImportRoundTrip(t *testing.T) {
	transfer, mem := newTransferFixture(t)
	ctx := context.Background()
	require.NoError(t, mem.UpsertAdd(ctx, "a", "2024-03-01", "20:00:00", models.Counts{Pints: 2, HalfPints: 1, Liters33: 3}))
	require.NoError(t, mem.UpsertAdd(ctx, "b", "2024-03-05", "18:30:00", models.Counts{Pints: 1}))

	var buf bytes.Buffer
	require.NoError(t, transfer.ExportAll(ctx, &buf))

	fresh, freshMem := newTransferFixture(t)
	result, err := fresh.Import(ctx, &buf, ImportOptions{WithUser: true})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Empty(t, result.CreatedUsers)

	got, err := freshMem.Query(ctx, "a", models.DateRange{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.Counts{Pints: 2, HalfPints: 1, Liters33: 3}, got[0].Counts())
}

func TestTransfer_ImportHeaderErrors(t *testing.T) {
	transfer, _ := newTransferFixture(t)
	ctx := context.Background()

	_, err := transfer.Import(ctx, strings.NewReader(""), ImportOptions{UserID: "a"})
	assert.Equal(t, 400, statusOf(t, err))

	_, err = transfer.Import(ctx, strings.NewReader("time,pints\n20:00:00,1\n"), ImportOptions{UserID: "a"})
	assert.Equal(t, 400, statusOf(t, err))

	_, err = transfer.Import(ctx, strings.NewReader("date,pints\n2024-03-01,1\n"), ImportOptions{WithUser: true})
	assert.Equal(t, 400, statusOf(t, err))
}

func TestTransfer_ImportStorageUnavailableAborts(t *testing.T) {
	transfer, mem := newTransferFixture(t)
	mem.SetErr(errors.New("offline"))
	_, err := transfer.Import(context.Background(), strings.NewReader("date,pints\n2024-03-01,1\n"), ImportOptions{UserID: "a"})
	assert.Equal(t, 503, statusOf(t, err))
}
