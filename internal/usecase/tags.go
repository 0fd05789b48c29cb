package usecase

import (
	"context"
	"log/slog"
)

// TaskTagsSync recomputes the per-category tag usage counters. Enqueued
// after every write that touches tag values.
const TaskTagsSync = "tags:sync"

type TagCount struct {
	Category   string
	Tag        string
	UsageCount int
}

type ListPopularTagsOption struct {
	Category string
	Limit    int
}

// PopularTags returns tag values of one category ordered by descending
// usage. Counters are maintained by the tags:sync worker task, not
// recomputed per request; reads go through the cache when one is wired.
func (u Usecase) PopularTags(ctx context.Context, opt ListPopularTagsOption) ([]TagCount, error) {
	if u.tagCache != nil {
		if tags, ok := u.tagCache.GetPopularTags(ctx, opt.Category, opt.Limit); ok {
			return tags, nil
		}
	}

	tags, err := u.repo.ListPopularTags(ctx, opt)
	if err != nil {
		return nil, err
	}

	if u.tagCache != nil {
		u.tagCache.SetPopularTags(ctx, opt.Category, opt.Limit, tags)
	}
	return tags, nil
}

// SyncTagUsage rebuilds the usage counters and drops the cache. Runs in the
// worker.
func (u Usecase) SyncTagUsage(ctx context.Context) error {
	if err := u.repo.SyncTagUsage(ctx); err != nil {
		return err
	}
	if u.tagCache != nil {
		u.tagCache.Invalidate(ctx)
	}
	return nil
}

func (u Usecase) enqueueTagSync(ctx context.Context) {
	if u.queueClient == nil {
		return
	}
	if err := u.queueClient.EnqueueTask(ctx, TaskTagsSync, nil); err != nil {
		slog.WarnContext(ctx, "enqueue tag sync", "error", err)
	}
}

// TagPresets is the fixed vocabulary offered to UI tag pickers, keyed by
// category. Free-form values are still accepted; presets are suggestions.
var TagPresets = map[string][]string{
	"emotion": {
		"happy", "sad", "angry", "confused", "surprised", "scared",
		"excited", "calm", "anxious", "frustrated", "proud", "embarrassed",
		"disgusted", "bored", "shocked", "amused", "relieved", "jealous",
	},
	"reaction": {
		"celebrating", "crying", "laughing", "screaming", "clapping",
		"facepalm", "shrugging", "nodding", "eyeroll", "smirking",
		"gasping", "sighing", "cringing", "yawning", "winking",
		"disappointed", "shocked", "awkward", "smug", "proud",
	},
	"situation": {
		"awkward moment", "sudden realization", "procrastination",
		"deadline panic", "trying to explain", "caught red-handed",
		"pretending to understand", "giving up", "success moment",
		"epic fail", "monday morning", "friday feeling", "waiting",
		"confusion", "arguing", "making excuse", "being dramatic",
	},
	"identity": {
		"distracted boyfriend", "drake hotline bling", "woman yelling at cat",
		"success kid", "hide the pain harold", "disaster girl",
		"expanding brain", "this is fine", "surprised pikachu",
		"change my mind", "two buttons", "boardroom meeting",
		"roll safe", "galaxy brain", "stonks", "bernie sanders",
	},
	"source": {
		"the office", "spongebob squarepants", "friends", "parks and recreation",
		"breaking bad", "game of thrones", "marvel cinematic universe",
		"star wars", "anime", "stock photo", "stock video",
		"viral video", "news", "sports", "movie", "tv show", "youtube",
	},
	"object": {
		"laptop", "phone", "coffee", "desk", "chair", "computer",
		"keyboard", "mouse", "book", "paper", "pen", "whiteboard",
		"door", "window", "car", "dog", "cat", "food", "drink",
		"microphone", "camera", "glasses", "hat", "money",
	},
	"character": {
		"boss", "coworker", "teacher", "student", "parent", "child",
		"friend", "stranger", "celebrity", "animal", "cartoon",
	},
	"action": {
		"typing", "walking", "running", "talking", "laughing",
		"crying", "eating", "drinking", "pointing", "thinking",
		"working", "sleeping", "dancing", "jumping", "falling",
		"celebrating", "explaining", "presenting", "arguing", "hiding",
	},
	"color": {
		"warm", "cool", "vibrant", "muted", "dark", "bright",
		"colorful", "monochrome", "pastel", "neon", "sepia",
	},
	"time": {
		"morning", "afternoon", "evening", "night", "sunset",
		"sunrise", "golden hour", "daytime", "nighttime",
	},
}
