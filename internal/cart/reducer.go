package cart

import "storefront/internal/models"

// Transition maps (state, intent) to the next state. It never mutates its input
// and never fails; an unrecognized intent returns the state unchanged.
func Transition(state State, in Intent) State {
	switch in := in.(type) {
	case SetLoading:
		next := state.Clone()
		next.Loading = in.Loading
		next.Error = ""
		return next

	case ReplaceAll:
		next := withTotals(state, copyItems(in.Items))
		next.Loading = false
		next.Error = ""
		return next

	case AddItem:
		return addItem(state, in.Item)

	case UpdateItem:
		if in.Quantity <= 0 {
			return removeItem(state, in.ID)
		}
		items := copyItems(state.Items)
		for i := range items {
			if items[i].ID == in.ID {
				items[i].Quantity = in.Quantity
				items[i].TotalPayable = items[i].LineTotal()
			}
		}
		next := withTotals(state, items)
		next.Error = ""
		return next

	case RemoveItem:
		return removeItem(state, in.ID)

	case ClearCart:
		next := withTotals(state, []models.LineItem{})
		next.Error = ""
		return next

	case SetError:
		next := state.Clone()
		next.Error = in.Message
		next.Loading = false
		return next

	case ClearError:
		next := state.Clone()
		next.Error = ""
		return next

	default:
		return state
	}
}

func addItem(state State, item models.LineItem) State {
	items := copyItems(state.Items)
	merged := false
	for i := range items {
		if items[i].ProductID == item.ProductID {
			items[i].Quantity += item.Quantity
			items[i].TotalPayable = items[i].LineTotal()
			merged = true
			break
		}
	}
	if !merged {
		item.TotalPayable = item.LineTotal()
		items = append(items, item)
	}

	next := withTotals(state, items)
	next.Error = ""
	return next
}

func removeItem(state State, id string) State {
	items := make([]models.LineItem, 0, len(state.Items))
	for _, item := range state.Items {
		if item.ID != id {
			items = append(items, item)
		}
	}
	next := withTotals(state, items)
	next.Error = ""
	return next
}

func copyItems(items []models.LineItem) []models.LineItem {
	out := make([]models.LineItem, len(items))
	copy(out, items)
	return out
}
