package badger

import "fmt"

// Key layout: records live under idx:<collection>:rec:<key>, collection
// metadata under idx:<collection>:meta.
const indexPrefix = "idx"

// makeRecordKey generates the storage key for a record.
func makeRecordKey(collection, key string) []byte {
	return []byte(fmt.Sprintf("%s:%s:rec:%s", indexPrefix, collection, key))
}

// makeRecordPrefix generates the iteration prefix covering a collection's
// records.
func makeRecordPrefix(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:rec:", indexPrefix, collection))
}

// makeMetaKey generates the key collection metadata is stored under.
func makeMetaKey(collection string) []byte {
	return []byte(fmt.Sprintf("%s:%s:meta", indexPrefix, collection))
}
