package resource

import (
	"context"
	"net/url"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-repair-console/apiclient"
	"github.com/goliatone/go-repair-console/entity"
)

// Repository is the per-entity REST contract shared by the plain and the
// cached implementations.
type Repository interface {
	Descriptor() entity.Descriptor
	List(ctx context.Context, params entity.QueryParams) (entity.Page, error)
	Get(ctx context.Context, id int64) (entity.Record, error)
	Create(ctx context.Context, body map[string]any) (entity.Record, error)
	Update(ctx context.Context, id int64, body map[string]any) (entity.Record, error)
	Delete(ctx context.Context, id int64) error
	// Reference loads the dataset behind the descriptor's select inputs.
	// It returns nil when the descriptor has no reference.
	Reference(ctx context.Context) ([]entity.Record, error)
}

// Requester is the subset of the API client used here.
type Requester interface {
	Get(ctx context.Context, path string, params url.Values) (*apiclient.Response, error)
	Post(ctx context.Context, path string, body any) (*apiclient.Response, error)
	Put(ctx context.Context, path string, body any) (*apiclient.Response, error)
	Delete(ctx context.Context, path string) (*apiclient.Response, error)
}

var _ Repository = (*RESTRepository)(nil)

// RESTRepository maps repository calls onto the descriptor's endpoints.
type RESTRepository struct {
	client     Requester
	descriptor entity.Descriptor
}

// NewRESTRepository builds a repository for descriptor.
func NewRESTRepository(client Requester, descriptor entity.Descriptor) *RESTRepository {
	return &RESTRepository{client: client, descriptor: descriptor}
}

func (r *RESTRepository) Descriptor() entity.Descriptor { return r.descriptor }

// List issues GET {collection} with the normalized params.
func (r *RESTRepository) List(ctx context.Context, params entity.QueryParams) (entity.Page, error) {
	params = params.Normalize(r.descriptor.Limit())

	resp, err := r.client.Get(ctx, r.descriptor.CollectionPath(), params.Values())
	if err != nil {
		return entity.Page{}, err
	}

	var records []entity.Record
	if err := resp.Decode(&records); err != nil {
		return entity.Page{}, err
	}

	page := entity.Page{Records: records}
	if resp.Pagination != nil {
		page.Pagination = entity.Pagination{
			Pages: resp.Pagination.Pages,
			Page:  resp.Pagination.Page,
			Total: resp.Pagination.Total,
		}
	} else {
		page.Pagination = entity.Pagination{Pages: 1, Page: params.Page, Total: len(records)}
	}
	return page, nil
}

func (r *RESTRepository) Get(ctx context.Context, id int64) (entity.Record, error) {
	if err := validateID(id); err != nil {
		return entity.Record{}, err
	}
	resp, err := r.client.Get(ctx, r.descriptor.ItemPath(id), nil)
	if err != nil {
		return entity.Record{}, err
	}
	return decodeRecord(resp)
}

func (r *RESTRepository) Create(ctx context.Context, body map[string]any) (entity.Record, error) {
	resp, err := r.client.Post(ctx, r.descriptor.CollectionPath(), body)
	if err != nil {
		return entity.Record{}, err
	}
	return decodeRecord(resp)
}

func (r *RESTRepository) Update(ctx context.Context, id int64, body map[string]any) (entity.Record, error) {
	if err := validateID(id); err != nil {
		return entity.Record{}, err
	}
	resp, err := r.client.Put(ctx, r.descriptor.ItemPath(id), body)
	if err != nil {
		return entity.Record{}, err
	}
	rec, err := decodeRecord(resp)
	if err == nil && rec.ID == 0 {
		rec.ID = id
	}
	return rec, err
}

func (r *RESTRepository) Delete(ctx context.Context, id int64) error {
	if err := validateID(id); err != nil {
		return err
	}
	_, err := r.client.Delete(ctx, r.descriptor.ItemPath(id))
	return err
}

func (r *RESTRepository) Reference(ctx context.Context) ([]entity.Record, error) {
	if r.descriptor.Reference == nil {
		return nil, nil
	}
	resp, err := r.client.Get(ctx, r.descriptor.Reference.Path, nil)
	if err != nil {
		return nil, err
	}
	var records []entity.Record
	if err := resp.Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

func decodeRecord(resp *apiclient.Response) (entity.Record, error) {
	var rec entity.Record
	if err := resp.Decode(&rec); err != nil {
		return entity.Record{}, err
	}
	return rec, nil
}

func validateID(id int64) error {
	if id <= 0 {
		return goerrors.New("resource: record id must be positive", goerrors.CategoryBadInput).
			WithTextCode("RESOURCE_INVALID_ID")
	}
	return nil
}
