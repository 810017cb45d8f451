package services

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/familyrecipe/internal/common"
	"github.com/dmitrijs2005/familyrecipe/internal/logging"
	"github.com/dmitrijs2005/familyrecipe/internal/server/auth"
	sc "github.com/dmitrijs2005/familyrecipe/internal/server/config"
	"github.com/dmitrijs2005/familyrecipe/internal/server/models"
	"github.com/dmitrijs2005/familyrecipe/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/familyrecipe/internal/server/repositories/repomanager"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 100

	uploadPrefix      = "public-images"
	uploadContentType = "image/*"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// NewRecipe is the client-supplied part of a recipe.
type NewRecipe struct {
	Name        string `json:"name"`
	Preparation string `json:"preparation"`
	Ingredients string `json:"ingredients,omitempty"`
	PhotoURL    string `json:"photoUrl,omitempty"`
}

type RecipeService struct {
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	log         logging.Logger
	now         func() time.Time
}

func NewRecipeService(m repomanager.RepositoryManager, config *sc.Config, log logging.Logger) *RecipeService {
	return &RecipeService{
		repomanager: m,
		config:      config,
		log:         log.With("module", "recipes"),
		now:         time.Now,
	}
}

// List returns one page of the family's recipes. limit is clamped to
// [1, MaxPageSize]; zero or negative means DefaultPageSize.
func (s *RecipeService) List(ctx context.Context, familyID string, limit int, cursor string) (*recipes.Page, error) {
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	return s.repomanager.Recipes().List(ctx, familyID, limit, cursor)
}

// Create stores a recipe authored by the caller in the caller's family.
func (s *RecipeService) Create(ctx context.Context, id auth.Identity, in NewRecipe) (*models.Recipe, error) {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return nil, fmt.Errorf("%w: recipe name is required", common.ErrValidation)
	case strings.TrimSpace(in.Preparation) == "":
		return nil, fmt.Errorf("%w: preparation is required", common.ErrValidation)
	}

	r, err := s.repomanager.Recipes().Create(ctx, &models.Recipe{
		Name:        in.Name,
		Author:      id.Username,
		FamilyID:    id.FamilyID,
		FamilyName:  id.FamilyName,
		Preparation: in.Preparation,
		Ingredients: in.Ingredients,
		ImageURL:    in.PhotoURL,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating recipe: %w", err)
	}

	s.log.Info(ctx, "recipe created", "recipeId", r.ID, "familyId", r.FamilyID, "author", r.Author)
	return r, nil
}

func (s *RecipeService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

// uploadKey is "public-images/<familyId>/<unixMillis>-<fileName>".
func (s *RecipeService) uploadKey(familyID, fileName string) string {
	return fmt.Sprintf("%s/%s/%d-%s", uploadPrefix, familyID, s.now().UnixMilli(), fileName)
}

func (s *RecipeService) checkFileName(fileName string) error {
	if fileName == "" {
		return fmt.Errorf("%w: missing file name", common.ErrValidation)
	}
	if strings.ContainsAny(fileName, `/\`) {
		return fmt.Errorf("%w: file name must not contain a path", common.ErrValidation)
	}
	ext := strings.ToLower(path.Ext(fileName))
	if ext == "" || !slices.Contains(s.config.UploadExtensions, ext) {
		return fmt.Errorf("%w: invalid file extension", common.ErrValidation)
	}
	return nil
}

// PresignUpload returns the object key and a presigned PUT URL for a photo
// of the caller's family.
func (s *RecipeService) PresignUpload(ctx context.Context, familyID, fileName string) (string, string, error) {
	if err := s.checkFileName(fileName); err != nil {
		return "", "", err
	}
	if s.config.S3Bucket == "" {
		return "", "", fmt.Errorf("%w: bucket name not set", common.ErrConfiguration)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := s.uploadKey(familyID, fileName)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: aws.String(uploadContentType),
	}, s3.WithPresignExpires(s.config.PresignExpiry))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}
