package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/arshmeetsingh/lego-collection/internal/apperr"
	"github.com/arshmeetsingh/lego-collection/internal/models"
)

const (
	DefaultSetsLimit = 100

	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var setColumns = []string{"set_num", "name", "year", "num_parts", "theme_id", "img_url"}

// CatalogStore reads and writes themes and sets in PostgreSQL.
type CatalogStore struct {
	db  *sql.DB
	log *zap.Logger
}

func NewCatalogStore(db *sql.DB, log *zap.Logger) *CatalogStore {
	return &CatalogStore{db: db, log: log}
}

func selectSets() squirrel.SelectBuilder {
	return psql.Select(
		"s.set_num", "s.name", "s.year", "s.num_parts", "s.theme_id", "s.img_url",
		"t.id", "t.name",
	).
		From("sets s").
		LeftJoin("themes t ON t.id = s.theme_id")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSet(row rowScanner, withTheme bool) (*models.Set, error) {
	var (
		set                     models.Set
		year, numParts, themeID sql.NullInt64
		imgURL                  sql.NullString
		joinedThemeID           sql.NullInt64
		joinedThemeName         sql.NullString
	)

	dest := []any{&set.SetNum, &set.Name, &year, &numParts, &themeID, &imgURL}
	if withTheme {
		dest = append(dest, &joinedThemeID, &joinedThemeName)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	set.Year = int(year.Int64)
	set.NumParts = int(numParts.Int64)
	set.ThemeID = int(themeID.Int64)
	set.ImgURL = imgURL.String
	if joinedThemeID.Valid {
		set.Theme = &models.Theme{ID: int(joinedThemeID.Int64), Name: joinedThemeName.String}
	}
	return &set, nil
}

func (s *CatalogStore) querySets(ctx context.Context, query squirrel.SelectBuilder) ([]models.Set, error) {
	q, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sets := []models.Set{}
	for rows.Next() {
		set, err := scanSet(rows, true)
		if err != nil {
			return nil, err
		}
		sets = append(sets, *set)
	}
	return sets, rows.Err()
}

// GetAllSets returns one page of sets with their themes. A non-positive
// limit means DefaultSetsLimit; a negative offset means 0.
func (s *CatalogStore) GetAllSets(ctx context.Context, limit, offset int) ([]models.Set, error) {
	if limit <= 0 {
		limit = DefaultSetsLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := selectSets().
		OrderBy("s.set_num").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	sets, err := s.querySets(ctx, query)
	if err != nil {
		s.log.Error("retrieving sets", zap.Error(err))
		return nil, apperr.Persistence("Unable to retrieve sets", err)
	}
	return sets, nil
}

// GetSetsByTheme returns the sets whose theme name contains theme, ignoring
// case.
func (s *CatalogStore) GetSetsByTheme(ctx context.Context, theme string) ([]models.Set, error) {
	query := selectSets().
		Where(squirrel.ILike{"t.name": "%" + theme + "%"}).
		OrderBy("s.set_num")

	sets, err := s.querySets(ctx, query)
	if err != nil {
		s.log.Error("retrieving sets by theme", zap.String("theme", theme), zap.Error(err))
		return nil, apperr.Persistence("Unable to find requested sets", err)
	}
	return sets, nil
}

func (s *CatalogStore) GetSetByNum(ctx context.Context, setNum string) (*models.Set, error) {
	q, args, err := selectSets().Where(squirrel.Eq{"s.set_num": setNum}).ToSql()
	if err != nil {
		return nil, apperr.Persistence("Unable to find requested set", err)
	}

	set, err := scanSet(s.db.QueryRowContext(ctx, q, args...), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperr.NotFoundError{Message: "Unable to find requested set"}
		}
		s.log.Error("retrieving set by num", zap.String("set_num", setNum), zap.Error(err))
		return nil, apperr.Persistence("Unable to find requested set", err)
	}
	return set, nil
}

func (s *CatalogStore) AddSet(ctx context.Context, in models.SetInput) (*models.Set, error) {
	q, args, err := psql.Insert("sets").
		Columns(setColumns...).
		Values(in.SetNum, in.Name, in.Year, in.NumParts, in.ThemeID, in.ImgURL).
		ToSql()
	if err != nil {
		return nil, apperr.Persistence("Unable to create new set", err)
	}

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		s.log.Error("creating new set", zap.String("set_num", in.SetNum), zap.Error(err))
		return nil, translateWriteError("Unable to create new set", err)
	}

	return &models.Set{
		SetNum:   in.SetNum,
		Name:     in.Name,
		Year:     in.Year,
		NumParts: in.NumParts,
		ThemeID:  in.ThemeID,
		ImgURL:   in.ImgURL,
	}, nil
}

// EditSet overwrites the writable fields of the set identified by setNum and
// returns the stored row.
func (s *CatalogStore) EditSet(ctx context.Context, setNum string, in models.SetInput) (*models.Set, error) {
	q, args, err := psql.Update("sets").
		Set("name", in.Name).
		Set("year", in.Year).
		Set("num_parts", in.NumParts).
		Set("theme_id", in.ThemeID).
		Set("img_url", in.ImgURL).
		Where(squirrel.Eq{"set_num": setNum}).
		Suffix("RETURNING set_num, name, year, num_parts, theme_id, img_url").
		ToSql()
	if err != nil {
		return nil, apperr.Persistence("Unable to update set", err)
	}

	set, err := scanSet(s.db.QueryRowContext(ctx, q, args...), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &apperr.NotFoundError{Message: "Set not found or no changes made"}
		}
		s.log.Error("updating set", zap.String("set_num", setNum), zap.Error(err))
		return nil, translateWriteError("Unable to update set", err)
	}
	return set, nil
}

func (s *CatalogStore) DeleteSet(ctx context.Context, setNum string) error {
	q, args, err := psql.Delete("sets").Where(squirrel.Eq{"set_num": setNum}).ToSql()
	if err != nil {
		return apperr.Persistence("Unable to delete set", err)
	}

	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		s.log.Error("deleting set", zap.String("set_num", setNum), zap.Error(err))
		return apperr.Persistence("Unable to delete set", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Persistence("Unable to delete set", err)
	}
	if n == 0 {
		return &apperr.NotFoundError{Message: "No set found with the given set_num"}
	}
	return nil
}

func (s *CatalogStore) GetAllThemes(ctx context.Context) ([]models.Theme, error) {
	q, args, err := psql.Select("id", "name").From("themes").OrderBy("name").ToSql()
	if err != nil {
		return nil, apperr.Persistence("Unable to retrieve themes", err)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.log.Error("retrieving themes", zap.Error(err))
		return nil, apperr.Persistence("Unable to retrieve themes", err)
	}
	defer rows.Close()

	themes := []models.Theme{}
	for rows.Next() {
		var theme models.Theme
		if err := rows.Scan(&theme.ID, &theme.Name); err != nil {
			return nil, apperr.Persistence("Unable to retrieve themes", err)
		}
		themes = append(themes, theme)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Persistence("Unable to retrieve themes", err)
	}
	return themes, nil
}

func translateWriteError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return &apperr.ConflictError{Message: "A set with this number already exists"}
		case pqForeignKeyViolation:
			return &apperr.NotFoundError{Message: "Unable to find the selected theme"}
		}
	}
	return apperr.Persistence(op, err)
}
