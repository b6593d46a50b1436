// Package treebuilder folds the walker's flat file/directory lists into the
// hierarchical tree the report's fileTree field carries (spec.md §2 step 2:
// "pure transformation; trivial, not detailed further").
package treebuilder

import (
	"sort"
	"strings"

	"github.com/codeatlas/codeatlas/internal/types"
)

// Build folds dirs and files into a single rooted tree. Children of every
// node are sorted directories-first, then files, by name (spec.md §6).
func Build(dirs []types.Directory, files []types.File) *types.TreeNode {
	nodes := map[string]*types.TreeNode{}

	root := &types.TreeNode{Path: ".", Name: rootName(dirs), IsDir: true}
	nodes["."] = root

	sortedDirs := append([]types.Directory(nil), dirs...)
	sort.Slice(sortedDirs, func(i, j int) bool { return sortedDirs[i].Depth < sortedDirs[j].Depth })

	for _, d := range sortedDirs {
		if d.Path == "." {
			continue
		}
		node := &types.TreeNode{Path: d.Path, Name: d.Name, IsDir: true}
		nodes[d.Path] = node
		parent := nodes[parentPath(d.Path)]
		if parent == nil {
			parent = root
		}
		parent.Children = append(parent.Children, node)
	}

	for _, f := range files {
		node := &types.TreeNode{Path: f.Path, Name: f.Name, IsDir: false}
		parent := nodes[parentPath(f.Path)]
		if parent == nil {
			parent = root
		}
		parent.Children = append(parent.Children, node)
	}

	sortChildren(root)
	return root
}

func sortChildren(n *types.TreeNode) {
	sort.SliceStable(n.Children, func(i, j int) bool {
		a, b := n.Children[i], n.Children[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		return a.Name < b.Name
	})
	for _, c := range n.Children {
		if c.IsDir {
			sortChildren(c)
		}
	}
}

func parentPath(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "."
	}
	return path[:idx]
}

func rootName(dirs []types.Directory) string {
	for _, d := range dirs {
		if d.Path == "." {
			return d.Name
		}
	}
	return "."
}
