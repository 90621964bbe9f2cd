package transaction_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/jvilaplana/cartera/internal/auth"
	"github.com/jvilaplana/cartera/internal/notify"
	"github.com/jvilaplana/cartera/internal/remote"
	"github.com/jvilaplana/cartera/internal/transaction"
)

const owner = "user-1"

func newService(t *testing.T) (*transaction.Service, *remote.MockStore) {
	t.Helper()

	ctrl := gomock.NewController(t)
	store := remote.NewMockStore(ctrl)

	gate := auth.NewGate()
	gate.Resolve(owner)

	return transaction.NewService(store, gate, notify.Discard{}, nil), store
}

func doc(id, date string, amount float64, typ transaction.Type, extra map[string]any) remote.Document {
	fields := map[string]any{
		"date":           date,
		"amount":         amount,
		"type":           string(typ),
		"sourceWalletId": "w-1",
		"userId":         owner,
		"createdAt":      "2026-08-01T10:00:00Z",
		"updatedAt":      "2026-08-01T10:00:00Z",
	}

	for k, v := range extra {
		fields[k] = v
	}

	return remote.Document{ID: id, Fields: fields}
}

func TestService_Create(t *testing.T) {
	type testCase struct {
		name      string
		params    transaction.CreateParams
		setupMock func(m *remote.MockStore)
		wantErr   bool
	}

	tests := []testCase{
		{
			name: "Success",
			params: transaction.CreateParams{
				Date:           time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
				Amount:         -25,
				Type:           transaction.TypeExpense,
				Description:    "Lunch",
				SourceWalletID: "w-1",
			},
			setupMock: func(m *remote.MockStore) {
				m.EXPECT().
					Create(gomock.Any(), owner, transaction.Collection, gomock.Any()).
					DoAndReturn(func(_ context.Context, _, _ string, fields map[string]any) (remote.Document, error) {
						return remote.Document{ID: "server-1", Fields: fields}, nil
					})
			},
		},
		{
			name: "RemoteError",
			params: transaction.CreateParams{
				Date:           time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
				Amount:         -25,
				Type:           transaction.TypeExpense,
				SourceWalletID: "w-1",
			},
			setupMock: func(m *remote.MockStore) {
				m.EXPECT().
					Create(gomock.Any(), owner, transaction.Collection, gomock.Any()).
					Return(remote.Document{}, remote.ErrUnavailable)
			},
			wantErr: true,
		},
		{
			name: "BothEndpointsOnExpense",
			params: transaction.CreateParams{
				Date:                time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
				Amount:              -25,
				Type:                transaction.TypeExpense,
				SourceWalletID:      "w-1",
				DestinationWalletID: "w-2",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newService(t)
			if tt.setupMock != nil {
				tt.setupMock(store)
			}

			got, err := svc.Create(context.Background(), tt.params)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				assert.Empty(t, svc.List(), "failed create leaves no provisional record behind")

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "server-1", got.ID)

			list := svc.List()
			require.Len(t, list, 1, "confirmed record replaces the provisional one")
			assert.Equal(t, "server-1", list[0].ID)
		})
	}
}

func TestService_Create_NewRecordLeadsFeed(t *testing.T) {
	svc, store := newService(t)

	store.EXPECT().
		Query(gomock.Any(), owner, transaction.Collection, gomock.Any()).
		Return([]remote.Document{doc("old", "2026-08-01", -10, transaction.TypeExpense, nil)}, nil)

	_, _, err := svc.FetchFirstPage(context.Background(), transaction.Filter{}, 10)
	require.NoError(t, err)

	store.EXPECT().
		Create(gomock.Any(), owner, transaction.Collection, gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, fields map[string]any) (remote.Document, error) {
			return remote.Document{ID: "fresh", Fields: fields}, nil
		})

	_, err = svc.Create(context.Background(), transaction.CreateParams{
		Date:           time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC),
		Amount:         -5,
		Type:           transaction.TypeExpense,
		SourceWalletID: "w-1",
	})
	require.NoError(t, err)

	list := svc.List()
	require.Len(t, list, 2)
	assert.Equal(t, "fresh", list[0].ID)
	assert.Equal(t, "fresh", svc.Recent()[0].ID)
}

func TestService_CreateBatch(t *testing.T) {
	params := []transaction.CreateParams{
		{
			Date:           time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
			Amount:         -10,
			Type:           transaction.TypeExpense,
			SourceWalletID: "w-1",
		},
		{
			Date:                time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC),
			Amount:              1500,
			Type:                transaction.TypeIncome,
			DestinationWalletID: "w-1",
		},
	}

	t.Run("Success", func(t *testing.T) {
		svc, store := newService(t)

		store.EXPECT().
			BatchWrite(gomock.Any(), owner, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, writes []remote.Write) ([]remote.Document, error) {
				require.Len(t, writes, 2)

				docs := make([]remote.Document, len(writes))
				for i, w := range writes {
					assert.Equal(t, remote.WriteCreate, w.Kind)
					docs[i] = remote.Document{ID: "batch-" + w.Fields["date"].(string), Fields: w.Fields}
				}

				return docs, nil
			})

		got, err := svc.CreateBatch(context.Background(), params, transaction.SourceCSV)

		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, 2, len(svc.List()))
		assert.Equal(t, transaction.SourceCSV, got[0].CreatedFrom)
	})

	t.Run("WholeBatchRollsBack", func(t *testing.T) {
		svc, store := newService(t)

		store.EXPECT().
			BatchWrite(gomock.Any(), owner, gomock.Any()).
			Return(nil, remote.ErrRejected)

		got, err := svc.CreateBatch(context.Background(), params, transaction.SourceCSV)

		assert.ErrorIs(t, err, remote.ErrRejected)
		assert.Nil(t, got)
		assert.Empty(t, svc.List(), "no partial batch survives a failed write")
	})

	t.Run("EmptyBatchIsANoOp", func(t *testing.T) {
		svc, _ := newService(t)

		got, err := svc.CreateBatch(context.Background(), nil, transaction.SourceCSV)

		assert.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("InvalidRecordFailsBeforeAnyWrite", func(t *testing.T) {
		svc, _ := newService(t)

		bad := append(append([]transaction.CreateParams(nil), params...), transaction.CreateParams{
			Type: transaction.TypeTransfer,
			Date: time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC),
		})

		_, err := svc.CreateBatch(context.Background(), bad, transaction.SourceCSV)

		assert.Error(t, err)
		assert.Empty(t, svc.List())
	})
}

func seedOne(t *testing.T, svc *transaction.Service, store *remote.MockStore) {
	t.Helper()

	store.EXPECT().
		Query(gomock.Any(), owner, transaction.Collection, gomock.Any()).
		Return([]remote.Document{
			doc("tx-1", "2026-08-10", -50, transaction.TypeExpense, map[string]any{"description": "Groceries"}),
		}, nil)

	_, _, err := svc.FetchFirstPage(context.Background(), transaction.Filter{}, 10)
	require.NoError(t, err)
}

func TestService_Update(t *testing.T) {
	newAmount := -75.0

	t.Run("Success", func(t *testing.T) {
		svc, store := newService(t)
		seedOne(t, svc, store)

		store.EXPECT().
			Update(gomock.Any(), owner, transaction.Collection, "tx-1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _, _ string, fields map[string]any) error {
				assert.Equal(t, newAmount, fields["amount"])
				assert.NotContains(t, fields, "description", "untouched fields stay out of the patch")
				return nil
			})

		got, err := svc.Update(context.Background(), transaction.UpdateParams{ID: "tx-1", Amount: &newAmount})

		require.NoError(t, err)
		assert.Equal(t, newAmount, got.Amount)
		assert.Equal(t, "Groceries", got.Description)

		cached, err := svc.Get("tx-1")
		require.NoError(t, err)
		assert.Equal(t, newAmount, cached.Amount)
	})

	t.Run("FailureRestoresSnapshot", func(t *testing.T) {
		svc, store := newService(t)
		seedOne(t, svc, store)

		store.EXPECT().
			Update(gomock.Any(), owner, transaction.Collection, "tx-1", gomock.Any()).
			Return(remote.ErrUnavailable)

		_, err := svc.Update(context.Background(), transaction.UpdateParams{ID: "tx-1", Amount: &newAmount})

		assert.ErrorIs(t, err, remote.ErrUnavailable)

		cached, err := svc.Get("tx-1")
		require.NoError(t, err)
		assert.Equal(t, -50.0, cached.Amount, "pre-mutation snapshot restored")
	})

	t.Run("UnknownID", func(t *testing.T) {
		svc, _ := newService(t)

		_, err := svc.Update(context.Background(), transaction.UpdateParams{ID: "nope", Amount: &newAmount})

		assert.ErrorIs(t, err, transaction.ErrNotFound)
	})

	t.Run("PatchCannotBreakEndpoints", func(t *testing.T) {
		svc, store := newService(t)
		seedOne(t, svc, store)

		dest := "w-2"

		_, err := svc.Update(context.Background(), transaction.UpdateParams{ID: "tx-1", DestinationWalletID: &dest})

		assert.Error(t, err, "expense would end up with two endpoints")

		cached, err := svc.Get("tx-1")
		require.NoError(t, err)
		assert.Empty(t, cached.DestinationWalletID)
	})
}

func TestService_Delete(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc, store := newService(t)
		seedOne(t, svc, store)

		store.EXPECT().
			Delete(gomock.Any(), owner, transaction.Collection, "tx-1").
			Return(nil)

		require.NoError(t, svc.Delete(context.Background(), "tx-1"))
		assert.Empty(t, svc.List())
	})

	t.Run("FailureRestoresRecord", func(t *testing.T) {
		svc, store := newService(t)
		seedOne(t, svc, store)

		store.EXPECT().
			Delete(gomock.Any(), owner, transaction.Collection, "tx-1").
			Return(remote.ErrUnavailable)

		err := svc.Delete(context.Background(), "tx-1")

		assert.ErrorIs(t, err, remote.ErrUnavailable)

		cached, err := svc.Get("tx-1")
		require.NoError(t, err)
		assert.Equal(t, -50.0, cached.Amount)
	})

	t.Run("UnknownID", func(t *testing.T) {
		svc, _ := newService(t)

		assert.ErrorIs(t, svc.Delete(context.Background(), "nope"), transaction.ErrNotFound)
	})
}

func TestService_Pagination(t *testing.T) {
	firstPage := []remote.Document{
		doc("tx-1", "2026-08-10", -10, transaction.TypeExpense, nil),
		doc("tx-2", "2026-08-09", -20, transaction.TypeExpense, nil),
	}

	t.Run("FullPageMeansMore", func(t *testing.T) {
		svc, store := newService(t)

		store.EXPECT().
			Query(gomock.Any(), owner, transaction.Collection, gomock.Any()).
			Return(firstPage, nil)

		txs, hasMore, err := svc.FetchFirstPage(context.Background(), transaction.Filter{}, 2)

		require.NoError(t, err)
		assert.Len(t, txs, 2)
		assert.True(t, hasMore)
		assert.True(t, svc.HasMore())
	})

	t.Run("ShortPageEndsFeed", func(t *testing.T) {
		svc, store := newService(t)

		store.EXPECT().
			Query(gomock.Any(), owner, transaction.Collection, gomock.Any()).
			Return(firstPage[:1], nil)

		_, hasMore, err := svc.FetchFirstPage(context.Background(), transaction.Filter{}, 2)

		require.NoError(t, err)
		assert.False(t, hasMore)
	})

	t.Run("NextPageContinuesAfterLastDoc", func(t *testing.T) {
		svc, store := newService(t)

		store.EXPECT().
			Query(gomock.Any(), owner, transaction.Collection, gomock.Any()).
			Return(firstPage, nil)

		_, _, err := svc.FetchFirstPage(context.Background(), transaction.Filter{}, 2)
		require.NoError(t, err)

		store.EXPECT().
			Query(gomock.Any(), owner, transaction.Collection, gomock.Any()).
			DoAndReturn(func(_ context.Context, _, _ string, q remote.Query) ([]remote.Document, error) {
				require.NotNil(t, q.StartAfter)
				assert.Equal(t, "tx-2", q.StartAfter.DocID)
				assert.Equal(t, "2026-08-09", q.StartAfter.OrderValue)

				return []remote.Document{doc("tx-3", "2026-08-08", -30, transaction.TypeExpense, nil)}, nil
			})

		txs, hasMore, err := svc.FetchNextPage(context.Background(), 2)

		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.False(t, hasMore)
		assert.Len(t, svc.List(), 3, "pages merge into one feed")
	})

	t.Run("FilterChangeStalesCursor", func(t *testing.T) {
		svc, store := newService(t)

		store.EXPECT().
			Query(gomock.Any(), owner, transaction.Collection, gomock.Any()).
			Return(firstPage, nil)

		_, _, err := svc.FetchFirstPage(context.Background(), transaction.Filter{}, 2)
		require.NoError(t, err)

		expense := transaction.TypeExpense
		svc.SetFilter(transaction.Filter{Type: &expense})

		_, _, err = svc.FetchNextPage(context.Background(), 2)

		assert.ErrorIs(t, err, transaction.ErrStaleCursor)
	})

	t.Run("NextPageWithoutFirstPage", func(t *testing.T) {
		svc, _ := newService(t)

		_, _, err := svc.FetchNextPage(context.Background(), 2)

		assert.ErrorIs(t, err, transaction.ErrStaleCursor)
	})
}

func TestService_GateBlocksRemoteOps(t *testing.T) {
	store := remote.NewMockStore(gomock.NewController(t))
	gate := auth.NewGate()

	svc := transaction.NewService(store, gate, notify.Discard{}, nil)

	_, _, err := svc.FetchFirstPage(context.Background(), transaction.Filter{}, 10)
	assert.ErrorIs(t, err, auth.ErrNotReady)

	gate.Resolve("")
	_, err = svc.Create(context.Background(), transaction.CreateParams{Type: transaction.TypeExpense, SourceWalletID: "w-1"})
	assert.ErrorIs(t, err, auth.ErrAnonymous)
}

func TestService_Filtered(t *testing.T) {
	svc, store := newService(t)

	store.EXPECT().
		Query(gomock.Any(), owner, transaction.Collection, gomock.Any()).
		Return([]remote.Document{
			doc("tx-1", "2026-08-10", -10, transaction.TypeExpense, map[string]any{"description": "Coffee beans"}),
			doc("tx-2", "2026-08-09", 900, transaction.TypeIncome, map[string]any{"description": "Salary"}),
		}, nil)

	_, _, err := svc.FetchFirstPage(context.Background(), transaction.Filter{}, 10)
	require.NoError(t, err)

	svc.SetFilter(transaction.Filter{Search: "coffee"})

	got := svc.Filtered()

	require.Len(t, got, 1)
	assert.Equal(t, "tx-1", got[0].ID)
}

func TestService_Reset(t *testing.T) {
	svc, store := newService(t)
	seedOne(t, svc, store)

	svc.Reset()

	assert.Empty(t, svc.List())
	assert.Empty(t, svc.Recent())
	assert.True(t, svc.HasMore(), "continuation flag returns to its initial state")
}
