package model

import (
	"encoding/xml"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// On-disk layout of a PROTEUS project.
const (
	ProjectFileName = "proteus.xml"
	ObjectsDir      = "objects"
	AssetsDir       = "assets"
)

// XML element and attribute names.
const (
	tagProject    = "project"
	tagObject     = "object"
	tagProperties = "properties"
	tagDocuments  = "documents"
	tagChildren   = "children"
	tagClass      = "class"
	tagTrace      = "trace"
	tagPrefix     = "prefix"
	tagNumber     = "number"
	tagSuffix     = "suffix"

	attrID               = "id"
	attrClasses          = "classes"
	attrAcceptedChildren = "acceptedChildren"
	attrStrictParent     = "strictParent"
	attrName             = "name"
	attrCategory         = "category"
	attrRequired         = "required"
	attrImmutable        = "inmutable"
	attrTooltip          = "tooltip"
	attrChoices          = "choices"
	attrTarget           = "target"
)

// xmlNode is a generic XML element; PROTEUS files are small enough to
// decode whole.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []xmlNode  `xml:",any"`
}

func (n *xmlNode) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *xmlNode) child(tag string) *xmlNode {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == tag {
			return &n.Children[i]
		}
	}
	return nil
}

func readXML(path string) (*xmlNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var root xmlNode
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &root, nil
}

// LoadProject reads a project directory: proteus.xml plus one
// objects/<id>.xml file per object.
//
// Loading is tolerant: unknown property types and children whose files are
// missing are logged and skipped, leaving dangling references that queries
// treat as "no match". A missing project file, a malformed XML file or a
// duplicate id fail the load.
func LoadProject(dir string, logger *slog.Logger) (*Project, error) {
	if logger == nil {
		logger = slog.Default()
	}

	root, err := readXML(filepath.Join(dir, ProjectFileName))
	if err != nil {
		return nil, err
	}
	if root.XMLName.Local != tagProject {
		return nil, fmt.Errorf("%w: %s root element is <%s>, want <%s>",
			ErrInvalidProject, ProjectFileName, root.XMLName.Local, tagProject)
	}

	id, ok := root.attr(attrID)
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: project without id", ErrInvalidProject)
	}

	l := &loader{
		objectsDir: filepath.Join(dir, ObjectsDir),
		logger:     logger,
		seen:       make(map[string]bool),
	}

	p := &Project{id: id, dir: dir}
	p.properties = l.properties(root, ProjectFileName)

	var documents []*Object
	if docs := root.child(tagDocuments); docs != nil {
		for _, ref := range docs.Children {
			docID, _ := ref.attr(attrID)
			if docID == "" {
				logger.Warn("Document reference without id", "project", id)
				continue
			}
			doc, err := l.loadTree(docID)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					logger.Warn("Document file missing, skipping", "id", docID, "error", err)
					continue
				}
				return nil, err
			}
			documents = append(documents, doc)
		}
	}

	if err := p.setDocuments(documents); err != nil {
		return nil, err
	}

	logger.Info("Project loaded",
		"id", id,
		"path", dir,
		"documents", len(documents),
		"objects", p.Len())

	return p, nil
}

type loader struct {
	objectsDir string
	logger     *slog.Logger
	seen       map[string]bool
}

type pendingChild struct {
	parent *Object
	id     string
}

// loadTree loads the object rootID and all its descendants breadth-first,
// preserving child order per parent.
func (l *loader) loadTree(rootID string) (*Object, error) {
	root, childIDs, err := l.loadObject(rootID)
	if err != nil {
		return nil, err
	}

	queue := make([]pendingChild, 0, len(childIDs))
	for _, cid := range childIDs {
		queue = append(queue, pendingChild{parent: root, id: cid})
	}

	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		if l.seen[next.id] {
			l.logger.Warn("Object referenced twice, skipping", "id", next.id, "parent", next.parent.ID)
			continue
		}

		obj, grandChildren, err := l.loadObject(next.id)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				l.logger.Warn("Child object file missing, skipping", "id", next.id, "parent", next.parent.ID)
				continue
			}
			return nil, err
		}

		if !next.parent.AcceptsChild(obj) {
			l.logger.Warn("Child class not accepted by parent, skipping",
				"id", obj.ID,
				"classes", obj.Classes,
				"parent", next.parent.ID,
				"accepted", next.parent.AcceptedChildren)
			continue
		}
		next.parent.AddChild(obj)

		for _, cid := range grandChildren {
			queue = append(queue, pendingChild{parent: obj, id: cid})
		}
	}

	return root, nil
}

func (l *loader) loadObject(id string) (*Object, []string, error) {
	path := filepath.Join(l.objectsDir, id+".xml")
	node, err := readXML(path)
	if err != nil {
		return nil, nil, err
	}
	if node.XMLName.Local != tagObject {
		return nil, nil, fmt.Errorf("%w: %s root element is <%s>, want <%s>",
			ErrInvalidProject, path, node.XMLName.Local, tagObject)
	}

	fileID, _ := node.attr(attrID)
	if fileID != id {
		return nil, nil, fmt.Errorf("%w: %s declares id %q", ErrInvalidProject, path, fileID)
	}
	l.seen[id] = true

	classes, _ := node.attr(attrClasses)
	accepted, _ := node.attr(attrAcceptedChildren)
	strict, _ := node.attr(attrStrictParent)

	obj := &Object{
		ID:               id,
		Classes:          reverse(strings.Fields(classes)),
		AcceptedChildren: strings.Fields(accepted),
		StrictParent:     strings.EqualFold(strict, "true"),
		Properties:       l.properties(node, path),
	}

	var childIDs []string
	if children := node.child(tagChildren); children != nil {
		for _, c := range children.Children {
			if cid, ok := c.attr(attrID); ok && cid != "" {
				childIDs = append(childIDs, cid)
			} else {
				l.logger.Warn("Child reference without id", "parent", id)
			}
		}
	}

	return obj, childIDs, nil
}

func (l *loader) properties(node *xmlNode, source string) []Property {
	container := node.child(tagProperties)
	if container == nil {
		return nil
	}

	props := make([]Property, 0, len(container.Children))
	for i := range container.Children {
		el := &container.Children[i]
		kind := Kind(el.XMLName.Local)
		if !KnownKind(kind) {
			l.logger.Warn("Unknown property type, ignoring", "element", el.XMLName.Local, "source", source)
			continue
		}
		props = append(props, parseProperty(kind, el))
	}
	return props
}

func parseProperty(kind Kind, el *xmlNode) Property {
	name, _ := el.attr(attrName)
	if name == "" {
		name = "unnamed"
	}
	category, _ := el.attr(attrCategory)
	if category == "" {
		category = DefaultCategory
	}
	required, _ := el.attr(attrRequired)
	immutable, _ := el.attr(attrImmutable)
	tooltip, _ := el.attr(attrTooltip)

	p := Property{
		Name:      name,
		Category:  category,
		Kind:      kind,
		Tooltip:   tooltip,
		Required:  strings.EqualFold(required, "true"),
		Immutable: strings.EqualFold(immutable, "true"),
	}

	switch kind {
	case KindClassList:
		for _, c := range el.Children {
			if c.XMLName.Local == tagClass {
				if v := strings.TrimSpace(c.Text); v != "" {
					p.List = append(p.List, v)
				}
			}
		}
	case KindTrace:
		for _, c := range el.Children {
			if c.XMLName.Local != tagTrace {
				continue
			}
			target, _ := c.attr(attrTarget)
			if target == "" {
				target = strings.TrimSpace(c.Text)
			}
			if target != "" {
				p.List = append(p.List, target)
			}
		}
	case KindCode:
		for _, c := range el.Children {
			switch c.XMLName.Local {
			case tagPrefix:
				p.Code.Prefix = strings.TrimSpace(c.Text)
			case tagNumber:
				p.Code.Number = strings.TrimSpace(c.Text)
			case tagSuffix:
				p.Code.Suffix = strings.TrimSpace(c.Text)
			}
		}
	case KindEnum:
		choices, _ := el.attr(attrChoices)
		p.Choices = strings.Fields(choices)
		p.Value = strings.TrimSpace(el.Text)
	case KindMarkdown:
		p.Value = el.Text
	default:
		p.Value = strings.TrimSpace(el.Text)
	}

	return p
}

func reverse(s []string) []string {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	return s
}
