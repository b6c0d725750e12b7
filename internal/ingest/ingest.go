// Package ingest synchronises a markdown vault into a document store.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"campaignwiki/internal/parser"
	"campaignwiki/internal/store"
)

// IndexTitle is the title of the synthetic page listing a folder's documents.
const IndexTitle = "Index"

// namespace scopes the name-based document and folder ids.
var namespace = uuid.MustParse("6f1c2f3e-8a52-5b7e-9d0e-3c4b7a1f2e90")

type Store interface {
	store.Reader
	store.Writer
}

type Config struct {
	Workspace string
	Paths     []string
	// Exclude holds doublestar patterns matched against slash paths relative to each vault root.
	Exclude []string
}

type Options struct {
	// Full re-upserts every file regardless of its content hash.
	Full bool
}

// UnresolvedLink is a link whose target matched no document.
type UnresolvedLink struct {
	SourceFile string
	Target     string
}

type Result struct {
	DocumentsUpserted int
	FoldersUpserted   int
	EdgesUpserted     int
	DocumentsRemoved  int
	FilesSkipped      int
	Unresolved        []UnresolvedLink
	Errors            []error
}

// DocumentID is the stable id of the document at relPath.
func DocumentID(workspace, relPath string) string {
	return uuid.NewSHA1(namespace, []byte(workspace+":doc:"+relPath)).String()
}

// FolderID is the stable id of the folder at relDir.
func FolderID(workspace, relDir string) string {
	return uuid.NewSHA1(namespace, []byte(workspace+":folder:"+relDir)).String()
}

func indexID(workspace, relDir string) string {
	return uuid.NewSHA1(namespace, []byte(workspace+":index:"+relDir)).String()
}

type sourceFile struct {
	path    string // as walked, used as SourceFile
	rel     string // slash path relative to its vault root
	modTime time.Time
}

type parsedFile struct {
	sourceFile
	id      string
	doc     *parser.Document
	content []byte
	hash    string
}

func Run(ctx context.Context, cfg Config, db Store, options Options) (*Result, error) {
	if strings.TrimSpace(cfg.Workspace) == "" {
		return nil, fmt.Errorf("workspace is required")
	}
	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	result := &Result{}

	existingHashes := map[string]string{}
	if !options.Full {
		var err error
		existingHashes, err = db.GetSourceHashes(ctx, cfg.Workspace)
		if err != nil {
			return nil, fmt.Errorf("get source hashes: %w", err)
		}
	}

	files, err := walkMarkdownFiles(cfg.Paths, cfg.Exclude)
	if err != nil {
		return nil, fmt.Errorf("walking vault: %w", err)
	}

	var parsed []parsedFile
	for _, file := range files {
		content, err := os.ReadFile(file.path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("reading %s: %w", file.path, err))
			continue
		}
		doc, err := parser.Parse(content)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("parsing %s: %w", file.path, err))
			continue
		}
		doc.SourceFile = file.path
		if doc.Title == "" {
			doc.Title = parser.TitleFromPath(file.path)
		}
		parsed = append(parsed, parsedFile{
			sourceFile: file,
			id:         DocumentID(cfg.Workspace, file.rel),
			doc:        doc,
			content:    content,
			hash:       computeHash(content),
		})
	}

	folders := buildFolders(cfg.Workspace, parsed)
	for _, folder := range folders {
		if err := db.UpsertFolder(ctx, folder); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("upserting folder %s: %w", folder.Name, err))
			continue
		}
		result.FoldersUpserted++
	}

	keep := make([]string, 0, len(parsed)+len(folders)+1)
	for _, file := range parsed {
		keep = append(keep, file.id)
		if !options.Full {
			if existing, ok := existingHashes[file.path]; ok && existing == file.hash {
				result.FilesSkipped++
				continue
			}
		}
		input := store.DocumentInput{
			Document: store.Document{
				ID:          file.id,
				Title:       file.doc.Title,
				Body:        string(file.content),
				FolderID:    folderRef(cfg.Workspace, path.Dir(file.rel)),
				WorkspaceID: cfg.Workspace,
				UpdatedAt:   file.modTime,
				SortIndex:   file.doc.SortIndex,
				SourceFile:  file.path,
				SourceHash:  file.hash,
			},
			Tags: convertTags(file.id, file.doc.Tags),
		}
		if err := db.UpsertDocument(ctx, input); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("upserting %s: %w", file.path, err))
			continue
		}
		result.DocumentsUpserted++
	}

	resolver := newLinkResolver(parsed)
	for _, file := range parsed {
		edges := make([]store.Edge, 0, len(file.doc.Links))
		seen := make(map[string]struct{})
		for _, link := range file.doc.Links {
			target, ok := resolver.resolve(file.rel, link)
			if !ok {
				result.Unresolved = append(result.Unresolved, UnresolvedLink{SourceFile: file.path, Target: link.Target})
				continue
			}
			if target == file.id {
				continue
			}
			if _, dup := seen[target+"|"+link.Label]; dup {
				continue
			}
			seen[target+"|"+link.Label] = struct{}{}
			edges = append(edges, store.Edge{FromDocID: file.id, ToDocID: target, LinkText: link.Label})
		}
		if err := db.ReplaceEdges(ctx, file.id, edges); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("replacing edges for %s: %w", file.path, err))
			continue
		}
		result.EdgesUpserted += len(edges)
	}

	for _, index := range buildIndexes(cfg.Workspace, parsed) {
		keep = append(keep, index.doc.Document.ID)
		if err := db.UpsertDocument(ctx, index.doc); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("upserting index for %s: %w", index.dir, err))
			continue
		}
		if err := db.ReplaceEdges(ctx, index.doc.Document.ID, index.edges); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("replacing index edges for %s: %w", index.dir, err))
		}
	}

	removed, err := db.SoftDeleteMissing(ctx, cfg.Workspace, keep)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("removing stale documents: %w", err))
	} else {
		result.DocumentsRemoved = int(removed)
	}

	return result, nil
}

func walkMarkdownFiles(roots []string, excludes []string) ([]sourceFile, error) {
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern: %q", pattern)
		}
	}

	var files []sourceFile
	for _, root := range roots {
		if root == "" {
			continue
		}
		root = filepath.Clean(root)
		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if d.IsDir() {
				if rel != "." && (strings.HasPrefix(d.Name(), ".") || isExcluded(rel+"/", excludes)) {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") || isExcluded(rel, excludes) {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			files = append(files, sourceFile{path: p, rel: rel, modTime: info.ModTime().UTC()})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].rel < files[j].rel })
	return files, nil
}

// isExcluded matches rel against the patterns. Directory paths carry a
// trailing slash so "drafts/**" prunes the whole directory.
func isExcluded(rel string, excludes []string) bool {
	for _, pattern := range excludes {
		if pattern == "" {
			continue
		}
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if strings.HasSuffix(rel, "/") {
			if ok, _ := doublestar.Match(pattern, strings.TrimSuffix(rel, "/")); ok {
				return true
			}
		}
	}
	return false
}

func computeHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

func convertTags(docID string, tags []parser.Tag) []store.Tag {
	out := make([]store.Tag, 0, len(tags))
	for _, tag := range tags {
		out = append(out, store.Tag{DocID: docID, Namespace: tag.Namespace, Value: tag.Value})
	}
	return out
}

func folderRef(workspace, dir string) *string {
	if dir == "." || dir == "" {
		return nil
	}
	id := FolderID(workspace, dir)
	return &id
}

// buildFolders returns every directory holding a document, and their
// ancestors, ordered by path. SortIndex is the position among siblings.
func buildFolders(workspace string, files []parsedFile) []store.Folder {
	dirs := make(map[string]struct{})
	for _, file := range files {
		for dir := path.Dir(file.rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
			dirs[dir] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(dirs))
	for dir := range dirs {
		sorted = append(sorted, dir)
	}
	sort.Strings(sorted)

	position := make(map[string]int)
	folders := make([]store.Folder, 0, len(sorted))
	for _, dir := range sorted {
		parent := path.Dir(dir)
		folders = append(folders, store.Folder{
			ID:          FolderID(workspace, dir),
			Name:        path.Base(dir),
			ParentID:    folderRef(workspace, parent),
			WorkspaceID: workspace,
			SortIndex:   position[parent],
		})
		position[parent]++
	}
	return folders
}

type indexPage struct {
	dir   string
	doc   store.DocumentInput
	edges []store.Edge
}

// buildIndexes creates one Index page per folder, including the vault root,
// linking every document directly inside it.
func buildIndexes(workspace string, files []parsedFile) []indexPage {
	byDir := make(map[string][]parsedFile)
	var dirs []string
	for _, file := range files {
		dir := path.Dir(file.rel)
		if _, ok := byDir[dir]; !ok {
			dirs = append(dirs, dir)
		}
		byDir[dir] = append(byDir[dir], file)
	}
	sort.Strings(dirs)

	pages := make([]indexPage, 0, len(dirs))
	for _, dir := range dirs {
		members := byDir[dir]
		sort.SliceStable(members, func(i, j int) bool {
			if members[i].doc.SortIndex != members[j].doc.SortIndex {
				return members[i].doc.SortIndex < members[j].doc.SortIndex
			}
			return strings.ToLower(members[i].doc.Title) < strings.ToLower(members[j].doc.Title)
		})

		id := indexID(workspace, dir)
		var body strings.Builder
		var updated time.Time
		edges := make([]store.Edge, 0, len(members))
		for _, m := range members {
			fmt.Fprintf(&body, "- [[%s]]\n", m.doc.Title)
			edges = append(edges, store.Edge{FromDocID: id, ToDocID: m.id, LinkText: m.doc.Title})
			if m.modTime.After(updated) {
				updated = m.modTime
			}
		}
		pages = append(pages, indexPage{
			dir: dir,
			doc: store.DocumentInput{Document: store.Document{
				ID:          id,
				Title:       IndexTitle,
				Body:        body.String(),
				FolderID:    folderRef(workspace, dir),
				WorkspaceID: workspace,
				UpdatedAt:   updated,
			}},
			edges: edges,
		})
	}
	return pages
}

// linkResolver maps link targets to document ids: wikilinks by title or file
// name, markdown links by path relative to the linking file.
type linkResolver struct {
	byTitle map[string]string
	byPath  map[string]string
}

func newLinkResolver(files []parsedFile) *linkResolver {
	r := &linkResolver{byTitle: make(map[string]string), byPath: make(map[string]string)}
	for _, file := range files {
		r.byPath[file.rel] = file.id
		title := strings.ToLower(strings.TrimSpace(file.doc.Title))
		if _, exists := r.byTitle[title]; !exists {
			r.byTitle[title] = file.id
		}
	}
	for _, file := range files {
		stem := strings.ToLower(parser.TitleFromPath(file.rel))
		if _, exists := r.byTitle[stem]; !exists {
			r.byTitle[stem] = file.id
		}
	}
	return r
}

func (r *linkResolver) resolve(fromRel string, link parser.Link) (string, bool) {
	if link.Wikilink {
		id, ok := r.byTitle[strings.ToLower(strings.TrimSpace(link.Target))]
		return id, ok
	}
	raw := link.Target
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	target := path.Clean(path.Join(path.Dir(fromRel), raw))
	id, ok := r.byPath[target]
	return id, ok
}
