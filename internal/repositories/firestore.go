package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hotube/backend/internal/models"
)

const (
	videosCollection   = "videos"
	usersCollection    = "users"
	commentsCollection = "comments"
)

// FirestoreConfig identifies the Firebase project holding the collections.
type FirestoreConfig struct {
	ProjectID       string
	CredentialsPath string
}

// NewFirestoreClient initialises the Firebase Admin SDK and returns its Firestore client.
func NewFirestoreClient(ctx context.Context, cfg FirestoreConfig) (*firestore.Client, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("firestore: project id is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open firestore client: %w", err)
	}
	return client, nil
}

func grpcCode(err error) codes.Code {
	return status.Code(err)
}

type videoDocument struct {
	Title                string    `firestore:"title"`
	Description          string    `firestore:"description"`
	YoutubeURL           string    `firestore:"youtubeUrl"`
	ThumbnailURL         string    `firestore:"thumbnailUrl"`
	ArchivedThumbnailURL string    `firestore:"archivedThumbnailUrl"`
	Type                 string    `firestore:"type"`
	Year                 int       `firestore:"year"`
	Tags                 []string  `firestore:"tags"`
	UploadedAt           string    `firestore:"uploadedAt"`
	DurationSeconds      int       `firestore:"durationSeconds"`
	ViewCount            int64     `firestore:"viewCount"`
	LikeCount            int64     `firestore:"likeCount"`
	ChannelTitle         string    `firestore:"channelTitle"`
	CreatedAt            time.Time `firestore:"createdAt"`
	UpdatedAt            time.Time `firestore:"updatedAt"`
}

func videoToDocument(v models.Video) videoDocument {
	return videoDocument{
		Title:                v.Title,
		Description:          v.Description,
		YoutubeURL:           v.YoutubeURL,
		ThumbnailURL:         v.ThumbnailURL,
		ArchivedThumbnailURL: v.ArchivedThumbnailURL,
		Type:                 string(v.Type),
		Year:                 v.Year,
		Tags:                 emptyIfNil(v.Tags),
		UploadedAt:           v.UploadedAt,
		DurationSeconds:      v.DurationSeconds,
		ViewCount:            v.ViewCount,
		LikeCount:            v.LikeCount,
		ChannelTitle:         v.ChannelTitle,
		CreatedAt:            v.CreatedAt,
		UpdatedAt:            v.UpdatedAt,
	}
}

func videoFromSnapshot(snap *firestore.DocumentSnapshot) (models.Video, error) {
	var doc videoDocument
	if err := snap.DataTo(&doc); err != nil {
		return models.Video{}, fmt.Errorf("decode video %s: %w", snap.Ref.ID, err)
	}
	return models.Video{
		ID:                   snap.Ref.ID,
		Title:                doc.Title,
		Description:          doc.Description,
		YoutubeURL:           doc.YoutubeURL,
		ThumbnailURL:         doc.ThumbnailURL,
		ArchivedThumbnailURL: doc.ArchivedThumbnailURL,
		Type:                 models.VideoType(doc.Type),
		Year:                 doc.Year,
		Tags:                 emptyIfNil(doc.Tags),
		UploadedAt:           doc.UploadedAt,
		DurationSeconds:      doc.DurationSeconds,
		ViewCount:            doc.ViewCount,
		LikeCount:            doc.LikeCount,
		ChannelTitle:         doc.ChannelTitle,
		CreatedAt:            doc.CreatedAt,
		UpdatedAt:            doc.UpdatedAt,
	}, nil
}

// FirestoreVideoRepository stores videos in the "videos" collection keyed by YouTube id.
type FirestoreVideoRepository struct {
	client *firestore.Client
}

// NewFirestoreVideoRepository constructs a video repository backed by Firestore.
func NewFirestoreVideoRepository(client *firestore.Client) *FirestoreVideoRepository {
	return &FirestoreVideoRepository{client: client}
}

func (r *FirestoreVideoRepository) List(ctx context.Context) ([]models.Video, error) {
	snaps, err := r.client.Collection(videosCollection).OrderBy("createdAt", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	videos := make([]models.Video, 0, len(snaps))
	for _, snap := range snaps {
		video, err := videoFromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	return videos, nil
}

func (r *FirestoreVideoRepository) Get(ctx context.Context, id string) (models.Video, error) {
	snap, err := r.client.Collection(videosCollection).Doc(id).Get(ctx)
	if err != nil {
		if grpcCode(err) == codes.NotFound {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("get video: %w", err)
	}
	return videoFromSnapshot(snap)
}

func (r *FirestoreVideoRepository) Create(ctx context.Context, video models.Video) error {
	if _, err := r.client.Collection(videosCollection).Doc(video.ID).Create(ctx, videoToDocument(video)); err != nil {
		if grpcCode(err) == codes.AlreadyExists {
			return ErrConflict
		}
		return fmt.Errorf("create video: %w", err)
	}
	return nil
}

func (r *FirestoreVideoRepository) Update(ctx context.Context, video models.Video) (models.Video, error) {
	ref := r.client.Collection(videosCollection).Doc(video.ID)
	_, err := ref.Update(ctx, []firestore.Update{
		{Path: "title", Value: video.Title},
		{Path: "description", Value: video.Description},
		{Path: "youtubeUrl", Value: video.YoutubeURL},
		{Path: "thumbnailUrl", Value: video.ThumbnailURL},
		{Path: "type", Value: string(video.Type)},
		{Path: "year", Value: video.Year},
		{Path: "tags", Value: emptyIfNil(video.Tags)},
		{Path: "uploadedAt", Value: video.UploadedAt},
		{Path: "durationSeconds", Value: video.DurationSeconds},
		{Path: "viewCount", Value: video.ViewCount},
		{Path: "likeCount", Value: video.LikeCount},
		{Path: "channelTitle", Value: video.ChannelTitle},
		{Path: "updatedAt", Value: video.UpdatedAt},
	})
	if err != nil {
		if grpcCode(err) == codes.NotFound {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("update video: %w", err)
	}
	return r.Get(ctx, video.ID)
}

// Delete removes the video, its comments and its id from user sets in one transaction.
func (r *FirestoreVideoRepository) Delete(ctx context.Context, id string) error {
	videoRef := r.client.Collection(videosCollection).Doc(id)
	comments := r.client.Collection(commentsCollection).Where("videoId", "==", id)
	likedBy := r.client.Collection(usersCollection).Where("likedVideos", "array-contains", id)
	watchedBy := r.client.Collection(usersCollection).Where("watchedVideos", "array-contains", id)

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(videoRef); err != nil {
			if grpcCode(err) == codes.NotFound {
				return ErrNotFound
			}
			return fmt.Errorf("get video: %w", err)
		}

		commentSnaps, err := tx.Documents(comments).GetAll()
		if err != nil {
			return fmt.Errorf("query video comments: %w", err)
		}
		userRefs := make(map[string]*firestore.DocumentRef)
		for _, q := range []firestore.Query{likedBy, watchedBy} {
			snaps, err := tx.Documents(q).GetAll()
			if err != nil {
				return fmt.Errorf("query users referencing video: %w", err)
			}
			for _, snap := range snaps {
				userRefs[snap.Ref.ID] = snap.Ref
			}
		}

		if err := tx.Delete(videoRef); err != nil {
			return fmt.Errorf("delete video: %w", err)
		}
		for _, snap := range commentSnaps {
			if err := tx.Delete(snap.Ref); err != nil {
				return fmt.Errorf("delete comment %s: %w", snap.Ref.ID, err)
			}
		}
		for _, ref := range userRefs {
			err := tx.Update(ref, []firestore.Update{
				{Path: "likedVideos", Value: firestore.ArrayRemove(id)},
				{Path: "watchedVideos", Value: firestore.ArrayRemove(id)},
			})
			if err != nil {
				return fmt.Errorf("detach video from user %s: %w", ref.ID, err)
			}
		}
		return nil
	})
}

func (r *FirestoreVideoRepository) SetArchivedThumbnail(ctx context.Context, id, location string) error {
	_, err := r.client.Collection(videosCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "archivedThumbnailUrl", Value: location},
	})
	if err != nil {
		if grpcCode(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("set archived thumbnail: %w", err)
	}
	return nil
}

type userDocument struct {
	UserID        string    `firestore:"userId"`
	Name          string    `firestore:"name"`
	Title         string    `firestore:"title"`
	Category      string    `firestore:"category"`
	Role          string    `firestore:"role"`
	Password      string    `firestore:"password"`
	LikedVideos   []string  `firestore:"likedVideos"`
	WatchedVideos []string  `firestore:"watchedVideos"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

func userFromSnapshot(snap *firestore.DocumentSnapshot) (models.User, error) {
	var doc userDocument
	if err := snap.DataTo(&doc); err != nil {
		return models.User{}, fmt.Errorf("decode user %s: %w", snap.Ref.ID, err)
	}
	return models.User{
		ID:            snap.Ref.ID,
		UserID:        doc.UserID,
		Name:          doc.Name,
		Title:         doc.Title,
		Category:      models.Category(doc.Category),
		Role:          models.Role(doc.Role),
		PasswordHash:  doc.Password,
		LikedVideos:   emptyIfNil(doc.LikedVideos),
		WatchedVideos: emptyIfNil(doc.WatchedVideos),
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}, nil
}

// FirestoreUserRepository stores accounts in the "users" collection.
type FirestoreUserRepository struct {
	client *firestore.Client
}

// NewFirestoreUserRepository constructs a user repository backed by Firestore.
func NewFirestoreUserRepository(client *firestore.Client) *FirestoreUserRepository {
	return &FirestoreUserRepository{client: client}
}

// Create checks handle uniqueness and inserts inside one transaction.
func (r *FirestoreUserRepository) Create(ctx context.Context, user models.User) error {
	users := r.client.Collection(usersCollection)
	ref := users.Doc(user.ID)
	doc := userDocument{
		UserID:        user.UserID,
		Name:          user.Name,
		Title:         user.Title,
		Category:      string(user.Category),
		Role:          string(user.Role),
		Password:      user.PasswordHash,
		LikedVideos:   emptyIfNil(user.LikedVideos),
		WatchedVideos: emptyIfNil(user.WatchedVideos),
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Documents(users.Where("userId", "==", user.UserID).Limit(1)).GetAll()
		if err != nil {
			return fmt.Errorf("check user handle: %w", err)
		}
		if len(existing) > 0 {
			return ErrConflict
		}
		if err := tx.Create(ref, doc); err != nil {
			if grpcCode(err) == codes.AlreadyExists {
				return ErrConflict
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
}

func (r *FirestoreUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	snap, err := r.client.Collection(usersCollection).Doc(id).Get(ctx)
	if err != nil {
		if grpcCode(err) == codes.NotFound {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return userFromSnapshot(snap)
}

func (r *FirestoreUserRepository) FindByUserID(ctx context.Context, userID string) (models.User, error) {
	iter := r.client.Collection(usersCollection).Where("userId", "==", userID).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("query user by userId: %w", err)
	}
	return userFromSnapshot(snap)
}

func (r *FirestoreUserRepository) UpdateProfile(ctx context.Context, id, name, title string, category models.Category, updatedAt time.Time) (models.User, error) {
	err := r.update(ctx, id, []firestore.Update{
		{Path: "name", Value: name},
		{Path: "title", Value: title},
		{Path: "category", Value: string(category)},
		{Path: "updatedAt", Value: updatedAt},
	})
	if err != nil {
		return models.User{}, err
	}
	return r.FindByID(ctx, id)
}

func (r *FirestoreUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	return r.update(ctx, id, []firestore.Update{
		{Path: "password", Value: passwordHash},
		{Path: "updatedAt", Value: updatedAt},
	})
}

// ToggleLike reads and flips membership in a transaction so concurrent toggles serialize.
func (r *FirestoreUserRepository) ToggleLike(ctx context.Context, id, videoID string, updatedAt time.Time) (bool, error) {
	ref := r.client.Collection(usersCollection).Doc(id)
	var liked bool
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if grpcCode(err) == codes.NotFound {
				return ErrNotFound
			}
			return fmt.Errorf("get user: %w", err)
		}
		user, err := userFromSnapshot(snap)
		if err != nil {
			return err
		}

		liked = !user.HasLiked(videoID)
		var change any = firestore.ArrayUnion(videoID)
		if !liked {
			change = firestore.ArrayRemove(videoID)
		}
		return tx.Update(ref, []firestore.Update{
			{Path: "likedVideos", Value: change},
			{Path: "updatedAt", Value: updatedAt},
		})
	})
	if err != nil {
		return false, err
	}
	return liked, nil
}

func (r *FirestoreUserRepository) AddWatched(ctx context.Context, id, videoID string, updatedAt time.Time) error {
	return r.update(ctx, id, []firestore.Update{
		{Path: "watchedVideos", Value: firestore.ArrayUnion(videoID)},
		{Path: "updatedAt", Value: updatedAt},
	})
}

func (r *FirestoreUserRepository) update(ctx context.Context, id string, updates []firestore.Update) error {
	if _, err := r.client.Collection(usersCollection).Doc(id).Update(ctx, updates); err != nil {
		if grpcCode(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

type commentDocument struct {
	VideoID      string     `firestore:"videoId"`
	UserID       string     `firestore:"userId"`
	UserName     string     `firestore:"userName"`
	UserTitle    string     `firestore:"userTitle"`
	UserCategory string     `firestore:"userCategory"`
	Content      string     `firestore:"content"`
	CreatedAt    time.Time  `firestore:"createdAt"`
	UpdatedAt    *time.Time `firestore:"updatedAt,omitempty"`
}

func commentFromSnapshot(snap *firestore.DocumentSnapshot) (models.Comment, error) {
	var doc commentDocument
	if err := snap.DataTo(&doc); err != nil {
		return models.Comment{}, fmt.Errorf("decode comment %s: %w", snap.Ref.ID, err)
	}
	return models.Comment{
		ID:           snap.Ref.ID,
		VideoID:      doc.VideoID,
		UserID:       doc.UserID,
		UserName:     doc.UserName,
		UserTitle:    doc.UserTitle,
		UserCategory: models.Category(doc.UserCategory),
		Content:      doc.Content,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

// FirestoreCommentRepository stores comments in the "comments" collection.
type FirestoreCommentRepository struct {
	client *firestore.Client
}

// NewFirestoreCommentRepository constructs a comment repository backed by Firestore.
func NewFirestoreCommentRepository(client *firestore.Client) *FirestoreCommentRepository {
	return &FirestoreCommentRepository{client: client}
}

func (r *FirestoreCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	doc := commentDocument{
		VideoID:      comment.VideoID,
		UserID:       comment.UserID,
		UserName:     comment.UserName,
		UserTitle:    comment.UserTitle,
		UserCategory: string(comment.UserCategory),
		Content:      comment.Content,
		CreatedAt:    comment.CreatedAt,
	}
	if _, err := r.client.Collection(commentsCollection).Doc(comment.ID).Create(ctx, doc); err != nil {
		if grpcCode(err) == codes.AlreadyExists {
			return ErrConflict
		}
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (r *FirestoreCommentRepository) Get(ctx context.Context, id string) (models.Comment, error) {
	snap, err := r.client.Collection(commentsCollection).Doc(id).Get(ctx)
	if err != nil {
		if grpcCode(err) == codes.NotFound {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("get comment: %w", err)
	}
	return commentFromSnapshot(snap)
}

func (r *FirestoreCommentRepository) ListByVideo(ctx context.Context, videoID string, category models.Category) ([]models.Comment, error) {
	q := r.client.Collection(commentsCollection).Where("videoId", "==", videoID)
	if category != "" {
		q = q.Where("userCategory", "==", string(category))
	}
	snaps, err := q.OrderBy("createdAt", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}

	comments := make([]models.Comment, 0, len(snaps))
	for _, snap := range snaps {
		comment, err := commentFromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

func (r *FirestoreCommentRepository) UpdateContent(ctx context.Context, id, content string, updatedAt time.Time) (models.Comment, error) {
	_, err := r.client.Collection(commentsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "content", Value: content},
		{Path: "updatedAt", Value: updatedAt},
	})
	if err != nil {
		if grpcCode(err) == codes.NotFound {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}
	return r.Get(ctx, id)
}

// Delete fails with ErrNotFound when the comment is absent.
func (r *FirestoreCommentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection(commentsCollection).Doc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		if grpcCode(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

var (
	_ VideoRepository   = (*FirestoreVideoRepository)(nil)
	_ UserRepository    = (*FirestoreUserRepository)(nil)
	_ CommentRepository = (*FirestoreCommentRepository)(nil)
)
