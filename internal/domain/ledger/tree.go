package ledger

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountNode is an account with its children and the balance rolled up from them
type AccountNode struct {
	Account       *Account
	Children      []*AccountNode
	RolledBalance decimal.Decimal
}

// BuildTree arranges a flat chart into root nodes ordered by code.
// Accounts whose parent is missing from the input are treated as roots.
func BuildTree(accounts []Account) []*AccountNode {
	nodes := make(map[uuid.UUID]*AccountNode, len(accounts))
	for i := range accounts {
		nodes[accounts[i].ID] = &AccountNode{Account: &accounts[i]}
	}

	roots := make([]*AccountNode, 0)
	for i := range accounts {
		node := nodes[accounts[i].ID]
		if accounts[i].ParentID != nil {
			if parent, ok := nodes[*accounts[i].ParentID]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sortNodes(roots)
	for _, root := range roots {
		rollUp(root, 0)
	}
	return roots
}

// maxTreeDepth stops runaway recursion on corrupted parent links
const maxTreeDepth = 32

func rollUp(node *AccountNode, depth int) decimal.Decimal {
	total := node.Account.Balance
	if depth < maxTreeDepth {
		for _, child := range node.Children {
			total = total.Add(rollUp(child, depth+1))
		}
	}
	node.RolledBalance = total
	return total
}

func sortNodes(nodes []*AccountNode) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].Account.Code < nodes[j].Account.Code
	})
	for _, n := range nodes {
		sortNodes(n.Children)
	}
}
