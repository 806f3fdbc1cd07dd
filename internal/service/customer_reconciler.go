package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/order-engine/internal/model"
	"github.com/d60-Lab/order-engine/internal/repository"
)

// CustomerInput 下单请求中的客户信息
type CustomerInput struct {
	Name            string
	Phone           string
	Email           string
	BirthDay        *int
	BirthMonth      *int
	BirthYear       *int
	City            string
	Area            string
	Address         string
	LocationDetails string
}

// CustomerLookup 匹配客户档案所需的查询能力
type CustomerLookup interface {
	FindByPhoneAndName(ctx context.Context, phone, name string) (*model.CustomerProfile, error)
	FindByPhone(ctx context.Context, phone string) (*model.CustomerProfile, error)
}

var phoneReplacer = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")

// NormalizePhone 去掉空格、横线、点和括号
func NormalizePhone(phone string) string {
	return phoneReplacer.Replace(strings.TrimSpace(phone))
}

// ReconcileCustomer 把请求中的客户信息对应到已有档案或新档案。
// 匹配顺序：(phone, name) -> phone -> 新建；没有电话时总是新建。
// 返回的新档案尚未持久化，created 为 true。
func ReconcileCustomer(ctx context.Context, lookup CustomerLookup, in CustomerInput, now time.Time) (*model.CustomerProfile, bool, error) {
	name := strings.TrimSpace(in.Name)
	phone := NormalizePhone(in.Phone)

	if phone != "" {
		p, err := lookup.FindByPhoneAndName(ctx, phone, name)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, false, err
		}
		if p == nil {
			p, err = lookup.FindByPhone(ctx, phone)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return nil, false, err
			}
		}
		if p != nil {
			p.Name = name
			applyContact(p, in)
			p.LastActivity = now
			return p, false, nil
		}
	}

	p := &model.CustomerProfile{
		Name:         name,
		Phone:        phone,
		LastActivity: now,
	}
	applyContact(p, in)
	return p, true, nil
}

// applyContact 只覆盖非空的联系字段
func applyContact(p *model.CustomerProfile, in CustomerInput) {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&p.Email, in.Email)
	set(&p.City, in.City)
	set(&p.Area, in.Area)
	set(&p.Address, in.Address)
	set(&p.LocationDetails, in.LocationDetails)
	if in.BirthDay != nil {
		p.BirthDay = in.BirthDay
	}
	if in.BirthMonth != nil {
		p.BirthMonth = in.BirthMonth
	}
	if in.BirthYear != nil {
		p.BirthYear = in.BirthYear
	}
}

// CustomerReconciler 将匹配结果写回档案表
type CustomerReconciler struct {
	customers repository.CustomerRepository
}

func NewCustomerReconciler(customers repository.CustomerRepository) *CustomerReconciler {
	return &CustomerReconciler{customers: customers}
}

// Reconcile 在事务 tx 内匹配并保存客户档案
func (r *CustomerReconciler) Reconcile(ctx context.Context, tx *gorm.DB, in CustomerInput, now time.Time) (*model.CustomerProfile, bool, error) {
	repo := r.customers.WithTx(tx)
	p, created, err := ReconcileCustomer(ctx, repo, in, now)
	if err != nil {
		return nil, false, err
	}
	if created {
		err = repo.Create(ctx, p)
	} else {
		err = repo.UpdateContact(ctx, p)
	}
	if err != nil {
		return nil, false, err
	}
	return p, created, nil
}
