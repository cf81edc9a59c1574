package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iceymoss/go-fpl/pkg/db/objects"
	"github.com/iceymoss/go-fpl/pkg/transaction"
)

// DefaultBatchSize 单条 INSERT 的最大行数
const DefaultBatchSize = 500

// Store 所有同步任务共用的持久化层。写操作都是按自然键 upsert，可重复执行
type Store struct {
	db    *gorm.DB
	tx    *transaction.Manager
	batch int
}

func New(db *gorm.DB) *Store {
	return &Store{
		db:    db,
		tx:    transaction.NewManager(db),
		batch: DefaultBatchSize,
	}
}

// Migrate 建表或补齐字段
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(objects.All()...); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return transaction.GetTransactionOrDB(ctx, s.db)
}

// upsert 冲突时覆盖全部非主键字段
func upsert[T any](ctx context.Context, s *Store, table string, rows []T, keys ...string) error {
	if len(rows) == 0 {
		return nil
	}
	columns := make([]clause.Column, 0, len(keys))
	for _, k := range keys {
		columns = append(columns, clause.Column{Name: k})
	}
	err := s.conn(ctx).
		Clauses(clause.OnConflict{Columns: columns, UpdateAll: true}).
		CreateInBatches(&rows, s.batch).Error
	if err != nil {
		return fmt.Errorf("store: upsert %s (%d rows): %w", table, len(rows), err)
	}
	return nil
}

func (s *Store) UpsertEvents(ctx context.Context, rows []objects.Event) error {
	return upsert(ctx, s, "events", rows, "id")
}

func (s *Store) UpsertClubs(ctx context.Context, rows []objects.Club) error {
	return upsert(ctx, s, "clubs", rows, "id")
}

func (s *Store) UpsertPlayers(ctx context.Context, rows []objects.Player) error {
	return upsert(ctx, s, "players", rows, "id")
}

func (s *Store) UpsertFixtures(ctx context.Context, rows []objects.Fixture) error {
	return upsert(ctx, s, "fixtures", rows, "id")
}

func (s *Store) UpsertLeagueEntries(ctx context.Context, rows []objects.LeagueEntry) error {
	return upsert(ctx, s, "league entries", rows, "league_id", "entry_id")
}

func (s *Store) UpsertTransfers(ctx context.Context, rows []objects.Transfer) error {
	return upsert(ctx, s, "transfers", rows, "entry_id", "event_id", "element_in", "element_out")
}

func (s *Store) UpsertPlayerPhotos(ctx context.Context, rows []objects.PlayerPhoto) error {
	return upsert(ctx, s, "player photos", rows, "player_id")
}

func (s *Store) UpsertLiveStats(ctx context.Context, rows []objects.LiveStat) error {
	return upsert(ctx, s, "live stats", rows, "event_id", "player_id")
}

// SaveGameState 比赛周、俱乐部、球员在一个事务里写入，球员依赖俱乐部
func (s *Store) SaveGameState(ctx context.Context, events []objects.Event, clubs []objects.Club, players []objects.Player) error {
	return s.tx.Execute(ctx, nil, func(ctx context.Context) error {
		if err := s.UpsertEvents(ctx, events); err != nil {
			return err
		}
		if err := s.UpsertClubs(ctx, clubs); err != nil {
			return err
		}
		return s.UpsertPlayers(ctx, players)
	})
}

// TrackedEntryIDs 积分榜里出现过的所有经理
func (s *Store) TrackedEntryIDs(ctx context.Context) ([]int, error) {
	var ids []int
	err := s.conn(ctx).Model(&objects.LeagueEntry{}).
		Distinct("entry_id").
		Order("entry_id").
		Pluck("entry_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("store: tracked entries: %w", err)
	}
	return ids, nil
}

// PlayersWithoutPhoto 还没有头像记录的球员，limit<=0 不限制
func (s *Store) PlayersWithoutPhoto(ctx context.Context, limit int) ([]objects.Player, error) {
	q := s.conn(ctx).Model(&objects.Player{}).
		Joins("LEFT JOIN fpl_player_photos ON fpl_player_photos.player_id = fpl_players.id").
		Where("fpl_player_photos.player_id IS NULL").
		Order("fpl_players.id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var players []objects.Player
	if err := q.Find(&players).Error; err != nil {
		return nil, fmt.Errorf("store: players without photo: %w", err)
	}
	return players, nil
}

// CurrentEventID 当前比赛周，赛季开始前没有
func (s *Store) CurrentEventID(ctx context.Context) (int, bool, error) {
	var ev objects.Event
	err := s.conn(ctx).Where("is_current = ?", true).Order("id DESC").First(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("store: current event: %w", err)
	}
	return ev.ID, true, nil
}
