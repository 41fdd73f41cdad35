package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sirpyerre/news-api/internal/core/domain"
)

type NewsRepository struct {
	col *mongo.Collection
	ids *counters
}

func NewNewsRepository(db *mongo.Database) *NewsRepository {
	return &NewsRepository{col: db.Collection(collectionNews), ids: newCounters(db)}
}

type newsDoc struct {
	ID        int64     `bson:"_id"`
	Title     string    `bson:"title"`
	Content   string    `bson:"content"`
	Image     string    `bson:"image"`
	UserID    int64     `bson:"user_id"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
	Author    *userDoc  `bson:"author,omitempty"`
}

func (d newsDoc) toDomain() domain.News {
	n := domain.News{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		Image:     d.Image,
		UserID:    d.UserID,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
	if d.Author != nil {
		n.Author = &domain.Author{ID: d.Author.ID, Name: d.Author.Name, Profile: d.Author.Profile}
	}
	return n
}

// withAuthor joins the owning user as "author".
func withAuthor(stages ...bson.D) mongo.Pipeline {
	pipeline := mongo.Pipeline(stages)
	return append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: collectionUsers},
			{Key: "localField", Value: "user_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "author"},
		}}},
		bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$author"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	)
}

func (r *NewsRepository) List(ctx context.Context, offset, limit int) ([]domain.News, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Aggregate(ctx, withAuthor(
		bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
		bson.D{{Key: "$skip", Value: int64(offset)}},
		bson.D{{Key: "$limit", Value: int64(limit)}},
	))
	if err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	defer cur.Close(ctx)

	var docs []newsDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode news: %w", err)
	}

	out := make([]domain.News, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *NewsRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count news: %w", err)
	}
	return n, nil
}

func (r *NewsRepository) FindByID(ctx context.Context, id int64) (*domain.News, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Aggregate(ctx, withAuthor(
		bson.D{{Key: "$match", Value: bson.D{{Key: "_id", Value: id}}}},
	))
	if err != nil {
		return nil, fmt.Errorf("find news: %w", err)
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return nil, fmt.Errorf("find news: %w", err)
		}
		return nil, domain.ErrNewsNotFound
	}

	var doc newsDoc
	if err := cur.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode news: %w", err)
	}
	n := doc.toDomain()
	return &n, nil
}

func (r *NewsRepository) Create(ctx context.Context, news *domain.News) (*domain.News, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := r.ids.next(ctx, collectionNews)
	if err != nil {
		return nil, err
	}

	doc := newsDoc{
		ID:        id,
		Title:     news.Title,
		Content:   news.Content,
		Image:     news.Image,
		UserID:    news.UserID,
		CreatedAt: news.CreatedAt,
		UpdatedAt: news.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert news: %w", err)
	}

	created := doc.toDomain()
	return &created, nil
}

func (r *NewsRepository) Update(ctx context.Context, news *domain.News) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": news.ID},
		bson.M{"$set": bson.M{
			"title":      news.Title,
			"content":    news.Content,
			"image":      news.Image,
			"updated_at": news.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("update news: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNewsNotFound
	}
	return nil
}

func (r *NewsRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete news: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNewsNotFound
	}
	return nil
}
