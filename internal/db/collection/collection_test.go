package collection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/tareas/internal/db/memorystorage"
	"github.com/patric-chuzhbe/tareas/internal/mockstorage"
	"github.com/patric-chuzhbe/tareas/internal/models"
)

type record struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestReadIsLenient(t *testing.T) {
	testCases := []struct {
		name     string
		document string
	}{
		{name: "empty document", document: ""},
		{name: "whitespace only", document: " \n\t "},
		{name: "null", document: "null"},
		{name: "broken JSON", document: `[{"id": 1,`},
		{name: "object instead of array", document: `{"id": 1}`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			backend, err := memorystorage.New()
			require.NoError(t, err)
			require.NoError(t, backend.Save(context.Background(), "things", []byte(testCase.document)))

			records, err := New[record](backend, "things").Read(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, records)
			assert.Empty(t, records)
		})
	}
}

func TestWriteIsPrettyPrinted(t *testing.T) {
	backend, err := memorystorage.New()
	require.NoError(t, err)
	things := New[record](backend, "things")

	require.NoError(t, things.Write(context.Background(), []record{{ID: 1, Name: "one"}}))

	data, err := backend.Load(context.Background(), "things")
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"id\": 1,\n    \"name\": \"one\"\n  }\n]", string(data))

	require.NoError(t, things.Write(context.Background(), nil))
	data, err = backend.Load(context.Background(), "things")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data), "A nil slice should be stored as an empty array")
}

func TestMutateDoesNotWriteOnError(t *testing.T) {
	backend := &mockstorage.StorageMock{}
	backend.On("Load", mock.Anything, "things").Return([]byte(`[{"id":1,"name":"one"}]`), nil)

	errStop := errors.New("stop")
	err := New[record](backend, "things").Mutate(context.Background(), func(records []record) ([]record, error) {
		return nil, errStop
	})

	assert.ErrorIs(t, err, errStop)
	backend.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	backend.AssertExpectations(t)
}

func TestStorageErrorsPropagate(t *testing.T) {
	ioErr := fmt.Errorf("%w: disk on fire", models.ErrStorageIO)

	backend := &mockstorage.StorageMock{}
	backend.On("Load", mock.Anything, "things").Return(nil, ioErr)

	_, err := New[record](backend, "things").Read(context.Background())
	assert.ErrorIs(t, err, models.ErrStorageIO)

	writeBackend := &mockstorage.StorageMock{}
	writeBackend.On("Save", mock.Anything, "things", mock.Anything).Return(ioErr)

	err = New[record](writeBackend, "things").Write(context.Background(), []record{{ID: 1}})
	assert.ErrorIs(t, err, models.ErrStorageIO)
	writeBackend.AssertExpectations(t)
}

func TestConcurrentMutationsAreNotLost(t *testing.T) {
	backend, err := memorystorage.New()
	require.NoError(t, err)
	things := New[record](backend, "things")

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(id int) {
			defer wg.Done()
			err := things.Mutate(context.Background(), func(records []record) ([]record, error) {
				return append(records, record{ID: id}), nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	records, err := things.Read(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, workers)
}

func TestMutateKeepsUndecodableDocument(t *testing.T) {
	testCases := []struct {
		name     string
		document string
	}{
		{name: "mistyped field", document: `[{"id":1,"name":"one"},{"id":2,"name":5}]`},
		{name: "string id", document: `[{"id":"3","name":"three"}]`},
		{name: "broken JSON", document: `[{"id": 1,`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			backend, err := memorystorage.New()
			require.NoError(t, err)
			require.NoError(t, backend.Save(context.Background(), "things", []byte(testCase.document)))

			called := false
			err = New[record](backend, "things").Mutate(context.Background(), func(records []record) ([]record, error) {
				called = true
				return append(records, record{ID: 9}), nil
			})
			assert.ErrorIs(t, err, models.ErrStorageIO)
			assert.False(t, called)

			data, err := backend.Load(context.Background(), "things")
			require.NoError(t, err)
			assert.Equal(t, testCase.document, string(data), "The stored document should be left untouched")
		})
	}
}

func TestMutateTreatsEmptyDocumentAsEmptyCollection(t *testing.T) {
	backend, err := memorystorage.New()
	require.NoError(t, err)
	require.NoError(t, backend.Save(context.Background(), "things", []byte("null")))

	things := New[record](backend, "things")
	err = things.Mutate(context.Background(), func(records []record) ([]record, error) {
		return append(records, record{ID: 1, Name: "one"}), nil
	})
	require.NoError(t, err)

	records, err := things.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []record{{ID: 1, Name: "one"}}, records)
}
