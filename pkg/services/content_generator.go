package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-content/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-content/pkg/jsonutil"
	"github.com/ekaya-inc/ekaya-content/pkg/llm"
	"github.com/ekaya-inc/ekaya-content/pkg/logging"
	"github.com/ekaya-inc/ekaya-content/pkg/models"
	"github.com/ekaya-inc/ekaya-content/pkg/prompts"
	"github.com/ekaya-inc/ekaya-content/pkg/repositories"
	"github.com/ekaya-inc/ekaya-content/pkg/retry"
)

// GenerateRequest asks for a new article about an offer.
type GenerateRequest struct {
	SiteID  string
	OfferID string
	Publish bool
}

// RewriteRequest asks for fresh content for an existing article.
type RewriteRequest struct {
	SiteID       string
	SiteName     string
	ProductName  string
	OfferID      string
	Tags         []string
	Persona      string
	Pain         string
	TemplateName string
}

// GeneratedContent is what the model returns. Body is raw and may still hold placeholders.
type GeneratedContent struct {
	Title   string   `json:"title"`
	Body    string   `json:"body"`
	Excerpt string   `json:"excerpt"`
	Tags    []string `json:"tags"`
}

// UnmarshalJSON accepts tags as an array or as one delimited string, and
// scalar text fields of any JSON type.
func (c *GeneratedContent) UnmarshalJSON(data []byte) error {
	var wire struct {
		Title   json.RawMessage `json:"title"`
		Body    json.RawMessage `json:"body"`
		Excerpt json.RawMessage `json:"excerpt"`
		Tags    json.RawMessage `json:"tags"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*c = GeneratedContent{
		Title:   jsonutil.FlexibleStringValue(wire.Title),
		Body:    jsonutil.FlexibleStringValue(wire.Body),
		Excerpt: jsonutil.FlexibleStringValue(wire.Excerpt),
		Tags:    jsonutil.FlexibleStringList(wire.Tags),
	}
	return nil
}

// ContentGenerator produces article content. Content quality is the generator's
// concern; callers only rely on the shape of the result.
type ContentGenerator interface {
	// GenerateFromOffer returns a new, unsaved article for the offer.
	GenerateFromOffer(ctx context.Context, req GenerateRequest) (*models.Article, error)
	Rewrite(ctx context.Context, req RewriteRequest) (*GeneratedContent, error)
}

// ContentGeneratorConfig holds generation defaults.
type ContentGeneratorConfig struct {
	DefaultTemplate string
	Temperature     float64
	// Location is used for seasonal context when a site sets no timezone.
	Location *time.Location
	// Retry governs retries of transient LLM failures. Nil means retry.GenerationConfig().
	Retry *retry.Config
}

type llmContentGenerator struct {
	llmClient   llm.LLMClient
	templates   *prompts.TemplateStore
	siteConfigs *SiteConfigCache
	offerRepo   repositories.OfferRepository
	config      ContentGeneratorConfig
	now         Clock
	logger      *zap.Logger
}

func NewContentGenerator(
	llmClient llm.LLMClient,
	templates *prompts.TemplateStore,
	siteConfigs *SiteConfigCache,
	offerRepo repositories.OfferRepository,
	config ContentGeneratorConfig,
	now Clock,
	logger *zap.Logger,
) ContentGenerator {
	g := &llmContentGenerator{
		llmClient:   llmClient,
		templates:   templates,
		siteConfigs: siteConfigs,
		offerRepo:   offerRepo,
		config:      config,
		now:         now.orNow(),
		logger:      logger.Named("content-generator"),
	}

	if g.config.Retry == nil {
		g.config.Retry = retry.GenerationConfig()
	}
	if g.config.Retry.OnRetry == nil {
		g.config.Retry.OnRetry = func(attempt int, err error, wait time.Duration) {
			g.logger.Warn("LLM call failed, retrying",
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.String("model", g.llmClient.GetModel()),
				zap.String("error", logging.SanitizeError(err)))
		}
	}

	return g
}

var _ ContentGenerator = (*llmContentGenerator)(nil)

func (g *llmContentGenerator) GenerateFromOffer(ctx context.Context, req GenerateRequest) (*models.Article, error) {
	offer, err := g.offerRepo.Get(ctx, req.OfferID)
	if err != nil {
		return nil, fmt.Errorf("failed to load offer %s: %w", req.OfferID, err)
	}

	siteCfg, err := g.siteConfigs.Get(ctx, req.SiteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load site config for %s: %w", req.SiteID, err)
	}

	now := g.now()
	data := prompts.BlogPromptData{
		SiteID:      req.SiteID,
		SiteName:    req.SiteID,
		ProductName: offer.Name,
		OfferID:     offer.ID,
		Tags:        offer.Tags,
		Season:      prompts.SeasonalContextFor(now, g.siteLocation(siteCfg)),
	}
	templateName := g.config.DefaultTemplate
	if siteCfg != nil {
		if siteCfg.DisplayName != "" {
			data.SiteName = siteCfg.DisplayName
		}
		data.Persona = siteCfg.Persona
		data.Pain = siteCfg.Pain
		if siteCfg.TemplateName != "" {
			templateName = siteCfg.TemplateName
		}
	}

	content, err := g.generate(ctx, templateName, data)
	if err != nil {
		return nil, err
	}

	body := prompts.StripPlaceholders(content.Body)
	if body == "" {
		return nil, apperrors.ErrEmptyGeneration
	}

	title := strings.TrimSpace(content.Title)
	if title == "" {
		title = offer.Name
	}
	tags := cleanTags(content.Tags)
	if len(tags) == 0 {
		tags = append([]string{}, offer.Tags...)
	}

	offerID := offer.ID
	return &models.Article{
		SiteID:    req.SiteID,
		Slug:      buildSlug(offer.ID, now),
		Title:     title,
		Body:      body,
		Excerpt:   strings.TrimSpace(content.Excerpt),
		Tags:      tags,
		OfferID:   &offerID,
		Published: req.Publish,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (g *llmContentGenerator) Rewrite(ctx context.Context, req RewriteRequest) (*GeneratedContent, error) {
	templateName := req.TemplateName
	if templateName == "" {
		templateName = g.config.DefaultTemplate
	}

	siteName := req.SiteName
	if siteName == "" {
		siteName = req.SiteID
	}

	content, err := g.generate(ctx, templateName, prompts.BlogPromptData{
		SiteID:      req.SiteID,
		SiteName:    siteName,
		ProductName: req.ProductName,
		OfferID:     req.OfferID,
		Tags:        req.Tags,
		Persona:     req.Persona,
		Pain:        req.Pain,
		Season:      prompts.SeasonalContextFor(g.now(), g.config.Location),
	})
	if err != nil {
		return nil, err
	}

	content.Title = strings.TrimSpace(content.Title)
	content.Excerpt = strings.TrimSpace(content.Excerpt)
	content.Tags = cleanTags(content.Tags)
	return content, nil
}

func (g *llmContentGenerator) generate(ctx context.Context, templateName string, data prompts.BlogPromptData) (*GeneratedContent, error) {
	prompt, err := g.templates.Render(templateName, data)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}
	prompt += prompts.BlogResponseFormat

	started := time.Now()
	result, err := retry.DoIfRetryableWithResult(ctx, g.config.Retry, func() (*llm.GenerateResponseResult, error) {
		return g.llmClient.GenerateResponse(ctx, prompt, prompts.BlogSystemMessage(), g.config.Temperature)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	content, err := llm.ParseJSONObject[GeneratedContent](result.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated content: %w", err)
	}

	g.logger.Info("Generated content",
		zap.String("site_id", data.SiteID),
		zap.String("template", templateName),
		zap.String("title", logging.TruncateString(content.Title, 40)),
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens),
		zap.Duration("elapsed", time.Since(started)))

	return &content, nil
}

func (g *llmContentGenerator) siteLocation(siteCfg *models.SiteConfig) *time.Location {
	if siteCfg == nil || siteCfg.Timezone == "" {
		return g.config.Location
	}
	loc, err := time.LoadLocation(siteCfg.Timezone)
	if err != nil {
		g.logger.Warn("Invalid site timezone, using default",
			zap.String("site_id", siteCfg.SiteID),
			zap.String("timezone", siteCfg.Timezone))
		return g.config.Location
	}
	return loc
}

// cleanTags trims tags and drops empties and duplicates, keeping order.
func cleanTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// buildSlug returns <yyyymmdd>-<offer>-<8 hex chars>, e.g. 20261019-off1-3f2a9c1d.
func buildSlug(offerID string, at time.Time) string {
	offerPart := strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(offerID), "-"), "-")
	if len(offerPart) > 40 {
		offerPart = strings.TrimRight(offerPart[:40], "-")
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	parts := []string{at.Format("20060102")}
	if offerPart != "" {
		parts = append(parts, offerPart)
	}
	return strings.Join(append(parts, suffix), "-")
}
