package models

import "slices"

// Placeholder values used when a content item or bullet is added by hand.
const (
	NewImageTitle   = "New Image"
	NewImageCaption = "Add your caption here"
	NewSlideTitle   = "New Slide"
	NewSlideContent = "Add your content here"
	NewBullet       = "New bullet point"
)

// Direction is the way an item moves when reordered.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ContentItem is the type-agnostic form of a carousel image or a slide.
// Caption is used by carousels, Content by slideshows.
type ContentItem struct {
	Title   string   `json:"title"`
	Caption string   `json:"caption,omitempty"`
	Content []string `json:"content,omitempty"`
}

// Len returns the number of content items.
func (p *Project) Len() int {
	if p.Type == Slideshow {
		return len(p.Slides)
	}
	return len(p.Images)
}

// Clone returns a deep copy of p.
func (p Project) Clone() Project {
	c := p
	c.Images = slices.Clone(p.Images)
	if p.Slides != nil {
		c.Slides = make([]Slide, len(p.Slides))
		for i, s := range p.Slides {
			c.Slides[i] = Slide{Title: s.Title, Content: slices.Clone(s.Content)}
		}
	}
	return c
}

func (p *Project) checkIndex(i int) error {
	if i < 0 || i >= p.Len() {
		return ErrIndexOutOfRange
	}
	return nil
}

// AddItem appends a placeholder item.
func (p *Project) AddItem() {
	if p.Type == Slideshow {
		p.Slides = append(p.Slides, Slide{Title: NewSlideTitle, Content: []string{NewSlideContent}})
		return
	}
	p.Images = append(p.Images, CarouselImage{Title: NewImageTitle, Caption: NewImageCaption})
}

// SetItem replaces the item at index i.
func (p *Project) SetItem(i int, item ContentItem) error {
	if err := p.checkIndex(i); err != nil {
		return err
	}
	if p.Type == Slideshow {
		if len(item.Content) == 0 {
			return ErrLastBullet
		}
		p.Slides[i] = Slide{Title: item.Title, Content: slices.Clone(item.Content)}
		return nil
	}
	p.Images[i] = CarouselImage{Title: item.Title, Caption: item.Caption}
	return nil
}

// RemoveItem deletes the item at index i. The last remaining item cannot be removed.
func (p *Project) RemoveItem(i int) error {
	if err := p.checkIndex(i); err != nil {
		return err
	}
	if p.Len() == 1 {
		return ErrEmptyContent
	}
	if p.Type == Slideshow {
		p.Slides = slices.Delete(p.Slides, i, i+1)
		return nil
	}
	p.Images = slices.Delete(p.Images, i, i+1)
	return nil
}

// MoveItem swaps the item at index i with its neighbour in direction d.
// Moving the first item up or the last item down is a no-op.
func (p *Project) MoveItem(i int, d Direction) error {
	if err := p.checkIndex(i); err != nil {
		return err
	}
	j := i - 1
	if d == Down {
		j = i + 1
	}
	if j < 0 || j >= p.Len() {
		return nil
	}
	if p.Type == Slideshow {
		p.Slides[i], p.Slides[j] = p.Slides[j], p.Slides[i]
		return nil
	}
	p.Images[i], p.Images[j] = p.Images[j], p.Images[i]
	return nil
}

func (p *Project) slide(i int) (*Slide, error) {
	if p.Type != Slideshow {
		return nil, ErrWrongProjectType
	}
	if err := p.checkIndex(i); err != nil {
		return nil, err
	}
	return &p.Slides[i], nil
}

// AddBullet appends a placeholder bullet to slide i.
func (p *Project) AddBullet(i int) error {
	s, err := p.slide(i)
	if err != nil {
		return err
	}
	s.Content = append(s.Content, NewBullet)
	return nil
}

// SetBullet replaces bullet b of slide i.
func (p *Project) SetBullet(i, b int, text string) error {
	s, err := p.slide(i)
	if err != nil {
		return err
	}
	if b < 0 || b >= len(s.Content) {
		return ErrIndexOutOfRange
	}
	s.Content[b] = text
	return nil
}

// RemoveBullet deletes bullet b of slide i, keeping at least one bullet.
func (p *Project) RemoveBullet(i, b int) error {
	s, err := p.slide(i)
	if err != nil {
		return err
	}
	if b < 0 || b >= len(s.Content) {
		return ErrIndexOutOfRange
	}
	if len(s.Content) <= 1 {
		return ErrLastBullet
	}
	s.Content = slices.Delete(s.Content, b, b+1)
	return nil
}

// ReplaceContent swaps the whole content list. Exactly the list matching the
// project type must be given and it must not be empty.
func (p *Project) ReplaceContent(images []CarouselImage, slides []Slide) error {
	switch p.Type {
	case Slideshow:
		if images != nil {
			return ErrWrongProjectType
		}
		if len(slides) == 0 {
			return ErrEmptyContent
		}
		for _, s := range slides {
			if len(s.Content) == 0 {
				return ErrLastBullet
			}
		}
		p.Slides = slides
	default:
		if slides != nil {
			return ErrWrongProjectType
		}
		if len(images) == 0 {
			return ErrEmptyContent
		}
		p.Images = images
	}
	return nil
}
