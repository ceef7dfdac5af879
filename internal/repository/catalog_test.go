package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arshmeetsingh/lego-collection/internal/apperr"
	"github.com/arshmeetsingh/lego-collection/internal/models"
)

var joinedSetColumns = []string{"set_num", "name", "year", "num_parts", "theme_id", "img_url", "id", "name"}

func newCatalogWithMock(t *testing.T) (*CatalogStore, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewCatalogStore(db, zap.NewNop()), mock, db
}

func TestGetAllSets(t *testing.T) {
	store, mock, db := newCatalogWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(joinedSetColumns).
		AddRow("001-1", "Gears", 1965, 43, 1, "https://cdn.example.com/001-1.jpg", 1, "Technic").
		AddRow("002-1", "Loose Bricks", nil, nil, nil, nil, nil, nil)
	mock.ExpectQuery(`(?s)^SELECT s\.set_num, .* FROM sets s LEFT JOIN themes t ON t\.id = s\.theme_id ORDER BY s\.set_num LIMIT`).
		WillReturnRows(rows)

	sets, err := store.GetAllSets(context.Background(), 0, -5)
	require.NoError(t, err)
	require.Len(t, sets, 2)

	assert.Equal(t, "001-1", sets[0].SetNum)
	assert.Equal(t, 1965, sets[0].Year)
	assert.Equal(t, 43, sets[0].NumParts)
	require.NotNil(t, sets[0].Theme)
	assert.Equal(t, "Technic", sets[0].Theme.Name)

	assert.Equal(t, "002-1", sets[1].SetNum)
	assert.Zero(t, sets[1].ThemeID)
	assert.Nil(t, sets[1].Theme)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAllSets_DBError(t *testing.T) {
	store, mock, db := newCatalogWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM sets s`).WillReturnError(errors.New("db down"))

	_, err := store.GetAllSets(context.Background(), 10, 0)
	var pe *apperr.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "db down")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSetsByTheme(t *testing.T) {
	store, mock, db := newCatalogWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(joinedSetColumns).
		AddRow("60047-1", "Police Station", 2014, 854, 61, "https://cdn.example.com/60047-1.jpg", 61, "City")
	mock.ExpectQuery(`(?s)FROM sets s LEFT JOIN themes t ON t\.id = s\.theme_id WHERE t\.name ILIKE \$1`).
		WithArgs("%city%").
		WillReturnRows(rows)

	sets, err := store.GetSetsByTheme(context.Background(), "city")
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, "City", sets[0].Theme.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSetsByTheme_NoMatches(t *testing.T) {
	store, mock, db := newCatalogWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`ILIKE`).
		WithArgs("%nothing%").
		WillReturnRows(sqlmock.NewRows(joinedSetColumns))

	sets, err := store.GetSetsByTheme(context.Background(), "nothing")
	require.NoError(t, err)
	assert.NotNil(t, sets)
	assert.Empty(t, sets)
}

func TestGetSetByNum(t *testing.T) {
	store, mock, db := newCatalogWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(joinedSetColumns).
		AddRow("10497-1", "Galaxy Explorer", 2022, 1254, 158, "https://cdn.example.com/10497-1.jpg", 158, "Icons")
	mock.ExpectQuery(`(?s)FROM sets s .* WHERE s\.set_num = \$1`).
		WithArgs("10497-1").
		WillReturnRows(rows)

	set, err := store.GetSetByNum(context.Background(), "10497-1")
	require.NoError(t, err)
	assert.Equal(t, "Galaxy Explorer", set.Name)
	assert.Equal(t, 158, set.ThemeID)
	assert.Equal(t, "Icons", set.Theme.Name)
}

func TestGetSetByNum_NotFound(t *testing.T) {
	store, mock, db := newCatalogWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`WHERE s\.set_num = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(joinedSetColumns))

	_, err := store.GetSetByNum(context.Background(), "missing")
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestAddSet(t *testing.T) {
	in := models.SetInput{
		SetNum:   "75192-1",
		Name:     "Millennium Falcon",
		Year:     2017,
		NumParts: 7541,
		ThemeID:  171,
		ImgURL:   "https://cdn.example.com/75192-1.jpg",
	}

	tests := []struct {
		name    string
		execErr error
		check   func(t *testing.T, err error)
	}{
		{
			name: "created",
			check: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name:    "duplicate set number",
			execErr: &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"},
			check: func(t *testing.T, err error) {
				var ce *apperr.ConflictError
				assert.ErrorAs(t, err, &ce)
			},
		},
		{
			name:    "unknown theme",
			execErr: &pq.Error{Code: "23503", Message: "insert or update violates foreign key constraint"},
			check: func(t *testing.T, err error) {
				var nf *apperr.NotFoundError
				assert.ErrorAs(t, err, &nf)
			},
		},
		{
			name:    "other failure",
			execErr: errors.New("connection reset"),
			check: func(t *testing.T, err error) {
				var pe *apperr.PersistenceError
				assert.ErrorAs(t, err, &pe)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock, db := newCatalogWithMock(t)
			defer db.Close()

			exp := mock.ExpectExec(`INSERT INTO sets \(set_num,name,year,num_parts,theme_id,img_url\) VALUES`).
				WithArgs(in.SetNum, in.Name, in.Year, in.NumParts, in.ThemeID, in.ImgURL)
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			set, err := store.AddSet(context.Background(), in)
			tt.check(t, err)
			if tt.execErr == nil {
				assert.Equal(t, in.Name, set.Name)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEditSet(t *testing.T) {
	store, mock, db := newCatalogWithMock(t)
	defer db.Close()

	in := models.SetInput{Name: "Millennium Falcon UCS", Year: 2017, NumParts: 7541, ThemeID: 171, ImgURL: "u"}
	mock.ExpectQuery(`(?s)UPDATE sets SET name = \$1, year = \$2, num_parts = \$3, theme_id = \$4, img_url = \$5 WHERE set_num = \$6 RETURNING`).
		WithArgs(in.Name, in.Year, in.NumParts, in.ThemeID, in.ImgURL, "75192-1").
		WillReturnRows(sqlmock.NewRows(setColumns).AddRow("75192-1", in.Name, 2017, 7541, 171, "u"))

	set, err := store.EditSet(context.Background(), "75192-1", in)
	require.NoError(t, err)
	assert.Equal(t, "Millennium Falcon UCS", set.Name)
	assert.Nil(t, set.Theme)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEditSet_NotFound(t *testing.T) {
	store, mock, db := newCatalogWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE sets`).WillReturnRows(sqlmock.NewRows(setColumns))

	_, err := store.EditSet(context.Background(), "nope", models.SetInput{Name: "x"})
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestDeleteSet(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantNF   bool
	}{
		{name: "deleted", affected: 1},
		{name: "missing", affected: 0, wantNF: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock, db := newCatalogWithMock(t)
			defer db.Close()

			mock.ExpectExec(`DELETE FROM sets WHERE set_num = \$1`).
				WithArgs("21318-1").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := store.DeleteSet(context.Background(), "21318-1")
			if tt.wantNF {
				var nf *apperr.NotFoundError
				assert.ErrorAs(t, err, &nf)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDeleteSet_DBError(t *testing.T) {
	store, mock, db := newCatalogWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM sets`).WillReturnError(errors.New("db down"))

	err := store.DeleteSet(context.Background(), "21318-1")
	var pe *apperr.PersistenceError
	assert.ErrorAs(t, err, &pe)
}

func TestGetAllThemes(t *testing.T) {
	store, mock, db := newCatalogWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, name FROM themes ORDER BY name`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(61, "City").AddRow(1, "Technic"))

	themes, err := store.GetAllThemes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Theme{{ID: 61, Name: "City"}, {ID: 1, Name: "Technic"}}, themes)
}
