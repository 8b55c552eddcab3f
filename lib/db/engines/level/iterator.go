package level

import (
	ldbiter "github.com/syndtr/goleveldb/leveldb/iterator"
)

// iterator adapts a leveldb iterator to db.Iterator.
// Keys are returned without the data prefix and values are copied,
// since leveldb reuses its buffers between calls to Next.
type iterator struct {
	it ldbiter.Iterator
}

func (i *iterator) Next() bool {
	return i.it.Next()
}

func (i *iterator) Key() string {
	return string(i.it.Key()[1:])
}

func (i *iterator) Value() []byte {
	v := i.it.Value()
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

func (i *iterator) Error() error {
	return i.it.Error()
}

func (i *iterator) Release() {
	i.it.Release()
}
