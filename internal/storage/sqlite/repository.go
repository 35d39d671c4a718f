package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/feed-brain/internal/models"
	"github.com/feed-brain/internal/storage"
)

// Repository implements storage.Repository using SQLite
type Repository struct {
	db *gorm.DB
}

// New creates a new SQLite repository
func New(dsn string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Migrate runs database migrations
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(
		&models.FeedSource{},
		&models.Article{},
	)
}

// Close closes the database connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translateError maps driver errors to the storage sentinel errors so
// callers can branch on errors.Is without knowing the backend.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return storage.ErrDuplicateURL
	}
	return err
}

// Feed source operations

func (r *Repository) CreateFeedSource(ctx context.Context, source *models.FeedSource) error {
	return translateError(r.db.WithContext(ctx).Create(source).Error)
}

func (r *Repository) GetFeedSourceByID(ctx context.Context, id uint) (*models.FeedSource, error) {
	var source models.FeedSource
	if err := r.db.WithContext(ctx).First(&source, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &source, nil
}

func (r *Repository) ListActiveFeedSources(ctx context.Context) ([]*models.FeedSource, error) {
	var sources []*models.FeedSource
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

func (r *Repository) ListFeedSources(ctx context.Context) ([]*models.FeedSource, error) {
	var sources []*models.FeedSource
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

func (r *Repository) DeactivateFeedSource(ctx context.Context, id uint) error {
	tx := r.db.WithContext(ctx).
		Model(&models.FeedSource{}).
		Where("id = ?", id).
		Update("active", false)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteFeedSource(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Articles outlive their source; only the back-reference is cleared.
		if err := tx.Model(&models.Article{}).
			Where("source_id = ?", id).
			Update("source_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.FeedSource{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

// Article operations

func (r *Repository) CreateArticle(ctx context.Context, article *models.Article) error {
	return translateError(r.db.WithContext(ctx).Create(article).Error)
}

func (r *Repository) GetArticleByID(ctx context.Context, id uint) (*models.Article, error) {
	var article models.Article
	if err := r.db.WithContext(ctx).Preload("Source").First(&article, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &article, nil
}

func (r *Repository) FindArticleByURL(ctx context.Context, url string) (*models.Article, error) {
	var article models.Article
	if err := r.db.WithContext(ctx).Where("url = ?", url).First(&article).Error; err != nil {
		return nil, translateError(err)
	}
	return &article, nil
}

func (r *Repository) ListArticles(ctx context.Context, filter storage.ArticleFilter) ([]*models.Article, error) {
	var articles []*models.Article
	query := r.db.WithContext(ctx).Model(&models.Article{}).Preload("Source")

	if filter.Tier != nil {
		query = query.Where("tier = ?", *filter.Tier)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.SourceID != nil {
		query = query.Where("source_id = ?", *filter.SourceID)
	}

	orderCol := "fetched_at"
	if filter.OrderBy != "" {
		orderCol = filter.OrderBy
	}
	if filter.OrderDesc {
		query = query.Order(orderCol + " DESC")
	} else {
		query = query.Order(orderCol + " ASC")
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	if err := query.Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

func (r *Repository) ListUnclassifiedWithContent(ctx context.Context) ([]*models.Article, error) {
	var articles []*models.Article
	if err := r.db.WithContext(ctx).
		Where("classified_at IS NULL").
		Where("content IS NOT NULL AND content != ''").
		Order("fetched_at ASC").
		Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

func (r *Repository) UpdateClassification(ctx context.Context, articleID uint, c models.Classification, at time.Time) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid classification: %w", err)
	}

	// Single statement: either every field lands, or none do.
	tx := r.db.WithContext(ctx).
		Model(&models.Article{}).
		Where("id = ?", articleID).
		Updates(map[string]interface{}{
			"summary":       c.Summary,
			"tier":          c.Tier,
			"category":      c.Category,
			"reason":        c.Reason,
			"confidence":    c.Confidence,
			"money_quote":   c.MoneyQuote,
			"actionables":   c.Actionables,
			"classified_at": at,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *Repository) UpdateFeedback(ctx context.Context, articleID uint, feedback models.Feedback, clippingCreated bool, at time.Time) error {
	if !feedback.Valid() {
		return fmt.Errorf("invalid feedback %q", feedback)
	}

	tx := r.db.WithContext(ctx).
		Model(&models.Article{}).
		Where("id = ?", articleID).
		Updates(map[string]interface{}{
			"feedback":         feedback,
			"clipping_created": clippingCreated,
			"feedback_at":      at,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Ensure Repository implements storage.Repository
var _ storage.Repository = (*Repository)(nil)
