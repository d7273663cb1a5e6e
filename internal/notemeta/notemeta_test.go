package notemeta

import "testing"

func TestParseSeparateFile(t *testing.T) {
	data := []byte(`---
id: a1
title: Deep Dive
site: example.com
state: READING
date_saved: 2025-03-04 10:20:30
tags:
  - go
  - sync
---

# Deep Dive

body text
`)
	meta, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if meta.ArticleID != "a1" {
		t.Errorf("id = %q", meta.ArticleID)
	}
	if meta.Title != "Deep Dive" {
		t.Errorf("title = %q", meta.Title)
	}
	if meta.Site != "example.com" || meta.State != "READING" {
		t.Errorf("site/state = %q/%q", meta.Site, meta.State)
	}
	if len(meta.Labels) != 2 || meta.Labels[0] != "go" {
		t.Errorf("labels = %v", meta.Labels)
	}
	if meta.SavedAt != "2025-03-04 10:20:30" {
		t.Errorf("saved_at = %q", meta.SavedAt)
	}
}

func TestParseSingleFileAggregate(t *testing.T) {
	data := []byte(`---
- id: b2
  title: Newest
- id: a1
  title: Older
---

%%b2_start%%
newest body
%%b2_end%%

%%a1_start%%
older body
%%a1_end%%
`)
	meta, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if meta.ArticleID != "b2" || meta.Title != "Newest" {
		t.Errorf("first record not used: %q %q", meta.ArticleID, meta.Title)
	}
	if len(meta.ArticleIDs) != 2 || meta.ArticleIDs[1] != "a1" {
		t.Errorf("ids = %v", meta.ArticleIDs)
	}
}

func TestParseLabelObjects(t *testing.T) {
	data := []byte("---\nid: a1\nlabels:\n  - name: go\n  - name: sync\n---\nbody")
	meta, err := Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(meta.Labels) != 2 || meta.Labels[1] != "sync" {
		t.Errorf("labels = %v", meta.Labels)
	}
}

func TestParseNoFrontMatter(t *testing.T) {
	meta, err := Parse([]byte("# Just a Heading\n\ntext\n"))
	if err != nil {
		t.Fatal(err)
	}
	if meta.ArticleID != "" {
		t.Errorf("id = %q", meta.ArticleID)
	}
	if meta.Title != "Just a Heading" {
		t.Errorf("title = %q", meta.Title)
	}
}

func TestParseMalformedFrontMatter(t *testing.T) {
	meta, err := Parse([]byte("---\n: : bad\n\t---\nbody"))
	if err != nil {
		t.Fatal(err)
	}
	if meta.ArticleID != "" {
		t.Errorf("id = %q", meta.ArticleID)
	}
}
