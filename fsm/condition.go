package fsm

type Condition[T any] func(input T) bool

func And[T any](conds ...Condition[T]) Condition[T] {
	return func(input T) bool {
		for _, cond := range conds {
			if !cond(input) {
				return false
			}
		}
		return true
	}
}

func Or[T any](conds ...Condition[T]) Condition[T] {
	return func(input T) bool {
		for _, cond := range conds {
			if cond(input) {
				return true
			}
		}
		return false
	}
}
