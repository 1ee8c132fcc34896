package repository

import (
	"context"

	"github.com/zfogg/screams/backend/internal/events"
	"github.com/zfogg/screams/backend/internal/models"
	"gorm.io/gorm"
)

// RepairResult counts what Repair changed
type RepairResult struct {
	Counters int           // screams whose likeCount or commentCount was rewritten
	Orphans  CascadeResult // documents that pointed at a missing scream
}

// Repair removes comments, likes and notifications whose scream no longer exists, then
// recomputes every drifted likeCount and commentCount from the likes and comments tables.
// Running it twice in a row changes nothing the second time.
func (s *Store) Repair(ctx context.Context) (RepairResult, error) {
	var result RepairResult

	orphaned, err := s.orphanedScreamIDs(ctx)
	if err != nil {
		return result, err
	}
	for _, id := range orphaned {
		removed, err := s.CascadeDeleteScream(ctx, id)
		if err != nil {
			return result, err
		}
		result.Orphans.Comments += removed.Comments
		result.Orphans.Likes += removed.Likes
		result.Orphans.Notifications += removed.Notifications
	}

	err = s.transact(ctx, func(tx *gorm.DB, changes *changeSet) error {
		var drifted []models.Scream
		err := tx.Where("like_count <> (SELECT COUNT(*) FROM likes WHERE likes.scream_id = screams.id)").
			Or("comment_count <> (SELECT COUNT(*) FROM comments WHERE comments.scream_id = screams.id)").
			Find(&drifted).Error
		if err != nil {
			return translate(err, "find drifted counters")
		}

		for i := range drifted {
			before := drifted[i]
			var likes, comments int64
			if err := tx.Model(&models.Like{}).Where("scream_id = ?", before.ID).Count(&likes).Error; err != nil {
				return translate(err, "count likes")
			}
			if err := tx.Model(&models.Comment{}).Where("scream_id = ?", before.ID).Count(&comments).Error; err != nil {
				return translate(err, "count comments")
			}

			after := before
			after.LikeCount = int(likes)
			after.CommentCount = int(comments)
			if err := tx.Model(&models.Scream{}).Where("id = ?", before.ID).Updates(map[string]any{
				"like_count":    after.LikeCount,
				"comment_count": after.CommentCount,
			}).Error; err != nil {
				return translate(err, "rewrite counters")
			}
			if err := changes.record(events.Updated, models.CollectionScreams, before.ID, &before, &after); err != nil {
				return err
			}
		}

		result.Counters = len(drifted)
		return nil
	})
	return result, err
}

// orphanedScreamIDs lists scream ids referenced by comments, likes or notifications but
// missing from screams
func (s *Store) orphanedScreamIDs(ctx context.Context) ([]string, error) {
	db := s.db.WithContext(ctx)
	existing := db.Model(&models.Scream{}).Select("id")

	seen := make(map[string]bool)
	var out []string
	for _, model := range []any{&models.Comment{}, &models.Like{}, &models.Notification{}} {
		var ids []string
		if err := db.Model(model).Where("scream_id NOT IN (?)", existing).Distinct().Pluck("scream_id", &ids).Error; err != nil {
			return nil, translate(err, "find orphans")
		}
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out, nil
}
