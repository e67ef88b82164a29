package tag

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/zyx-c/image-app/pkg/constant"
	"github.com/zyx-c/image-app/pkg/domain/model"
	"github.com/zyx-c/image-app/pkg/idgen"
)

func TestMain(m *testing.M) {
	if err := idgen.InitSqidsEncoder(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeTagRepo 是 TagRepository 的内存实现
type fakeTagRepo struct {
	nextID uint
	tags   map[uint]*model.Tag
}

func newFakeTagRepo() *fakeTagRepo {
	return &fakeTagRepo{nextID: 1, tags: make(map[uint]*model.Tag)}
}

func (f *fakeTagRepo) Create(ctx context.Context, tag *model.Tag) error {
	for _, t := range f.tags {
		if t.UserID == tag.UserID && t.TagName == tag.TagName {
			return fmt.Errorf("%w: 标签 '%s'", constant.ErrConflict, tag.TagName)
		}
	}
	tag.ID = f.nextID
	f.nextID++
	f.tags[tag.ID] = tag
	return nil
}

func (f *fakeTagRepo) FindByID(ctx context.Context, id uint) (*model.Tag, error) {
	if t, ok := f.tags[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: 标签 %d", constant.ErrNotFound, id)
}

func (f *fakeTagRepo) FindByName(ctx context.Context, userID uint, name string) (*model.Tag, error) {
	for _, t := range f.tags {
		if t.UserID == userID && t.TagName == name {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeTagRepo) Update(ctx context.Context, tag *model.Tag) error {
	f.tags[tag.ID] = tag
	return nil
}

func (f *fakeTagRepo) Delete(ctx context.Context, id uint) error {
	delete(f.tags, id)
	return nil
}

func (f *fakeTagRepo) List(ctx context.Context, userID *uint, keyword string) ([]*model.Tag, error) {
	var out []*model.Tag
	for _, t := range f.tags {
		if userID != nil && t.UserID != *userID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTagRepo) IncrementUseCount(ctx context.Context, id uint, delta int) error {
	if t, ok := f.tags[id]; ok {
		t.UseCount += delta
		if t.UseCount < 0 {
			t.UseCount = 0
		}
	}
	return nil
}

// fakeImageTagRepo 是 ImageTagRepository 的内存实现
type fakeImageTagRepo struct {
	nextID uint
	links  map[uint]*model.ImageTag
}

func newFakeImageTagRepo() *fakeImageTagRepo {
	return &fakeImageTagRepo{nextID: 1, links: make(map[uint]*model.ImageTag)}
}

func (f *fakeImageTagRepo) Find(ctx context.Context, imageID, tagID uint) (*model.ImageTag, error) {
	for _, l := range f.links {
		if l.ImageID == imageID && l.TagID == tagID {
			return l, nil
		}
	}
	return nil, nil
}

func (f *fakeImageTagRepo) CreateIfAbsent(ctx context.Context, link *model.ImageTag) (bool, error) {
	if existing, _ := f.Find(ctx, link.ImageID, link.TagID); existing != nil {
		return false, nil
	}
	link.ID = f.nextID
	f.nextID++
	f.links[link.ID] = link
	return true, nil
}

func (f *fakeImageTagRepo) Delete(ctx context.Context, imageID, tagID uint) error {
	for id, l := range f.links {
		if l.ImageID == imageID && l.TagID == tagID {
			delete(f.links, id)
		}
	}
	return nil
}

func (f *fakeImageTagRepo) DeleteByImage(ctx context.Context, imageID uint) (int64, error) {
	var n int64
	for id, l := range f.links {
		if l.ImageID == imageID {
			delete(f.links, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeImageTagRepo) DeleteByTag(ctx context.Context, tagID uint) (int64, error) {
	var n int64
	for id, l := range f.links {
		if l.TagID == tagID {
			delete(f.links, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeImageTagRepo) ListByImage(ctx context.Context, imageID uint) ([]*model.ImageTag, error) {
	var out []*model.ImageTag
	for _, l := range f.links {
		if l.ImageID == imageID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeImageTagRepo) ListImageIDsByTag(ctx context.Context, tagID uint) ([]uint, error) {
	var out []uint
	for _, l := range f.links {
		if l.TagID == tagID {
			out = append(out, l.ImageID)
		}
	}
	return out, nil
}

func newTestService() (*Service, *fakeTagRepo, *fakeImageTagRepo) {
	tagRepo := newFakeTagRepo()
	linkRepo := newFakeImageTagRepo()
	return NewService(tagRepo, linkRepo), tagRepo, linkRepo
}

func TestTagNameFromCategory(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"带子分类", "动物-猫科", "动物"},
		{"无子分类", "建筑", "建筑"},
		{"首尾空白", "  风景 - 山水", "风景"},
		{"空分类", "", ""},
		{"只有分隔符", "-", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tagNameFromCategory(tt.input); got != tt.want {
				t.Errorf("tagNameFromCategory(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestService_ApplyResults(t *testing.T) {
	svc, tagRepo, _ := newTestService()
	ctx := context.Background()

	results := []*model.AiTagResult{
		{Keyword: "猫", Score: 0.92, Category: "动物-猫科"},
		{Keyword: "狗", Score: 0.61, Category: "动物-犬科"}, // 与上一条同归"动物"，落库时去重
		{Keyword: "高楼", Score: 0.5, Category: "建筑"},     // 刚好等于阈值，包含
		{Keyword: "沙发", Score: 0.49, Category: "家居"},    // 低于阈值
		{Keyword: "未知", Score: 0.9, Category: ""},       // 无分类，不落标签
	}

	out, err := svc.ApplyResults(ctx, 1, 100, results, 0.5)
	if err != nil {
		t.Fatalf("ApplyResults 失败: %v", err)
	}

	if out.MinScore != 0.5 {
		t.Errorf("MinScore = %v, want 0.5", out.MinScore)
	}
	if len(out.AllTags) != 5 {
		t.Errorf("AllTags 数 = %d, want 5", len(out.AllTags))
	}
	// FilteredTags 只按分数过滤：去重与无分类的结果仍在其中，只有"家居"被挡下
	if len(out.FilteredTags) != 4 {
		t.Errorf("FilteredTags 数 = %d: %+v", len(out.FilteredTags), out.FilteredTags)
	}
	// 落库的标签只有 动物(首条)、建筑 两个
	if out.AddedCount != 2 {
		t.Errorf("AddedCount = %d, want 2", out.AddedCount)
	}

	animal, _ := tagRepo.FindByName(ctx, 1, "动物")
	if animal == nil {
		t.Fatal("应创建'动物'标签")
	}
	if animal.TagType != model.TagTypeAI {
		t.Errorf("AI 落库的标签类型 = %d, want %d", animal.TagType, model.TagTypeAI)
	}
	if animal.UseCount != 1 {
		t.Errorf("使用计数 = %d, want 1", animal.UseCount)
	}
}

func TestService_ApplyResults_FilteredKeepsUnmaterializable(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	// 三条都过阈值：一条无分类、一条与首条同名，
	// 都不落标签，但都属于过阈值集合
	results := []*model.AiTagResult{
		{Keyword: "猫", Score: 0.92, Category: "动物-猫科"},
		{Keyword: "狗", Score: 0.88, Category: "动物-犬科"},
		{Keyword: "未知", Score: 0.75, Category: ""},
	}

	out, err := svc.ApplyResults(ctx, 1, 100, results, 0.5)
	if err != nil {
		t.Fatalf("ApplyResults 失败: %v", err)
	}
	if len(out.FilteredTags) != 3 {
		t.Errorf("FilteredTags 数 = %d, want 3: %+v", len(out.FilteredTags), out.FilteredTags)
	}
	if out.AddedCount != 1 {
		t.Errorf("AddedCount = %d, want 1", out.AddedCount)
	}
}

func TestService_ApplyResults_ZeroThresholdKeepsAll(t *testing.T) {
	svc, tagRepo, _ := newTestService()
	ctx := context.Background()

	// 阈值 0 表示全部落库，低分结果也建标签
	out, err := svc.ApplyResults(ctx, 1, 100, []*model.AiTagResult{
		{Keyword: "沙发", Score: 0.1, Category: "家居"},
	}, 0)
	if err != nil {
		t.Fatalf("ApplyResults 失败: %v", err)
	}
	if len(out.FilteredTags) != 1 || out.AddedCount != 1 {
		t.Errorf("阈值 0 应落库全部结果: filtered=%d added=%d", len(out.FilteredTags), out.AddedCount)
	}
	if out.MinScore != 0 {
		t.Errorf("MinScore = %v, want 0", out.MinScore)
	}
	if home, _ := tagRepo.FindByName(ctx, 1, "家居"); home == nil {
		t.Error("应创建'家居'标签")
	}
}

func TestService_ApplyResults_Idempotent(t *testing.T) {
	svc, tagRepo, _ := newTestService()
	ctx := context.Background()

	results := []*model.AiTagResult{
		{Keyword: "猫", Score: 0.92, Category: "动物-猫科"},
	}

	first, err := svc.ApplyResults(ctx, 1, 100, results, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.ApplyResults(ctx, 1, 100, results, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	if first.AddedCount != 1 || second.AddedCount != 0 {
		t.Errorf("AddedCount = (%d, %d), want (1, 0)", first.AddedCount, second.AddedCount)
	}
	animal, _ := tagRepo.FindByName(ctx, 1, "动物")
	if animal.UseCount != 1 {
		t.Errorf("重复落库后使用计数 = %d, want 1", animal.UseCount)
	}
}

func TestService_ApplyResults_LinkConfidence(t *testing.T) {
	svc, tagRepo, linkRepo := newTestService()
	ctx := context.Background()

	svc.ApplyResults(ctx, 1, 100, []*model.AiTagResult{
		{Keyword: "猫", Score: 0.92, Category: "动物"},
	}, 0.5)

	animal, _ := tagRepo.FindByName(ctx, 1, "动物")
	link, _ := linkRepo.Find(ctx, 100, animal.ID)
	if link == nil || link.Confidence == nil {
		t.Fatal("AI 关联应携带置信度")
	}
	if *link.Confidence != 92 {
		t.Errorf("置信度 = %v, want 92 (0-100区间)", *link.Confidence)
	}
}

func TestService_CreateTag(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.CreateTag(ctx, 1, "旅行")
	if err != nil {
		t.Fatalf("CreateTag 失败: %v", err)
	}
	if first.TagType != model.TagTypeUserDefined {
		t.Errorf("标签类型 = %d, want %d", first.TagType, model.TagTypeUserDefined)
	}

	// 重复创建返回已有标签
	again, err := svc.CreateTag(ctx, 1, "旅行")
	if err != nil {
		t.Fatalf("重复 CreateTag 失败: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("重复创建应返回同一标签: %s vs %s", again.ID, first.ID)
	}

	if _, err := svc.CreateTag(ctx, 1, "   "); err == nil {
		t.Error("空白标签名应被拒绝")
	}
}

func TestService_RenameTag_Forbidden(t *testing.T) {
	svc, tagRepo, _ := newTestService()
	ctx := context.Background()

	other := &model.Tag{UserID: 2, TagName: "别人的", TagType: model.TagTypeUserDefined}
	tagRepo.Create(ctx, other)

	if _, err := svc.RenameTag(ctx, 1, other.ID, "改名"); err == nil {
		t.Error("跨用户重命名应被拒绝")
	}
}

func TestService_DeleteTag_CascadesLinks(t *testing.T) {
	svc, tagRepo, linkRepo := newTestService()
	ctx := context.Background()

	svc.ApplyResults(ctx, 1, 100, []*model.AiTagResult{
		{Keyword: "猫", Score: 0.9, Category: "动物"},
	}, 0.5)
	animal, _ := tagRepo.FindByName(ctx, 1, "动物")

	if err := svc.DeleteTag(ctx, 1, animal.ID); err != nil {
		t.Fatalf("DeleteTag 失败: %v", err)
	}
	if link, _ := linkRepo.Find(ctx, 100, animal.ID); link != nil {
		t.Error("删除标签后关联应被清除")
	}
	if _, err := tagRepo.FindByID(ctx, animal.ID); err == nil {
		t.Error("标签本身应被删除")
	}
}
