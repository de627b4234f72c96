package aggregator

import (
	"context"
	"strings"

	"trendpulse/internal/domain"
)

// SocialSentiment reports hashtag activity. It prefers live social mentions,
// then search interest, then a fixed list with zero mentions.
func (s *Service) SocialSentiment(ctx context.Context) domain.SocialBatch {
	ctx, span, started := s.start(ctx, KindSocial)
	batch := s.socialSentiment(ctx)
	s.finish(span, KindSocial, batch.Provenance, len(batch.Items), started)
	return batch
}

func (s *Service) socialSentiment(ctx context.Context) domain.SocialBatch {
	if s.socialReady() {
		mentions := s.deps.Social.SocialSentiment(ctx, s.cfg.SocialHashtags)
		if len(mentions) > 0 {
			items := make([]domain.SocialSignal, 0, len(mentions))
			for _, m := range mentions {
				items = append(items, domain.SocialSignal{
					Hashtag:   hashtag(m.Query),
					Mentions:  max(m.Mentions, 0),
					Sentiment: orNeutral(m.Sentiment),
				})
			}
			return domain.SocialBatch{Items: dedupSocial(items), Provenance: domain.ProvenanceLive}
		}
	}

	if s.deps.Interest != nil {
		interests := s.deps.Interest.Interest(ctx, s.cfg.SocialKeywords)
		if len(interests) > 0 {
			items := make([]domain.SocialSignal, 0, len(interests))
			for _, in := range interests {
				sentiment := domain.SentimentNeutral
				if in.Rising {
					sentiment = domain.SentimentBullish
				}
				items = append(items, domain.SocialSignal{
					Hashtag:   hashtag(in.Keyword),
					Mentions:  max(in.Score, 0) * 100,
					Sentiment: sentiment,
				})
			}
			return domain.SocialBatch{Items: dedupSocial(items), Provenance: domain.ProvenanceLive}
		}
	}

	items := make([]domain.SocialSignal, 0, len(hardcodedSocial))
	for _, tag := range hardcodedSocial {
		items = append(items, domain.SocialSignal{Hashtag: tag, Sentiment: domain.SentimentNeutral})
	}
	return domain.SocialBatch{Items: items, Provenance: domain.ProvenanceFallback}
}

// HashtagKeywords turns hashtags into the plain keywords used for search
// interest, so both social sources track the same list.
func HashtagKeywords(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if kw := strings.TrimPrefix(hashtag(tag), "#"); kw != "" {
			out = append(out, kw)
		}
	}
	return out
}

func hashtag(raw string) string {
	tag := strings.Join(strings.Fields(strings.TrimLeft(strings.TrimSpace(raw), "#$")), "")
	return "#" + tag
}

func orNeutral(s domain.Sentiment) domain.Sentiment {
	if s == "" {
		return domain.SentimentNeutral
	}
	return s
}
